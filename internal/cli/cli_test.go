package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const casesCSV = `State,Year,Cases
Texas,2019,200
TX,2019,50
California,2019,"1,000"
Atlantis,2020,7
,2020,3
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExport_Stdout(t *testing.T) {
	path := writeFixture(t, "Cases_data.csv", casesCSV)

	out, _, err := execute(t, "export", path)
	require.NoError(t, err)

	want := "\"State\",\"2019\",\"2020\"\n" +
		"\"Atlantis\",\"0\",\"7\"\n" +
		"\"California\",\"1000\",\"0\"\n" +
		"\"Texas\",\"250\",\"0\"\n"
	assert.Equal(t, want, out)
}

func TestExport_OutputFile(t *testing.T) {
	path := writeFixture(t, "Cases_data.csv", casesCSV)
	dest := filepath.Join(t.TempDir(), "heatmap_export.csv")

	out, stderr, err := execute(t, "export", path, "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "wrote 3 states x 2 years")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"Texas\",\"250\",\"0\"\n")
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unsupported extension", "cases.parquet", "x", "unsupported file format"},
		{"no usable rows", "Empty_data.csv", "State,Year,Cases\n,2020,4\nOhio,,3\n", domain.ErrEmptyDataset.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "export", writeFixture(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, _, err := execute(t, "export", filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = execute(t, "export")
	require.Error(t, err, "a file argument is required")
}

func TestSummary_Text(t *testing.T) {
	out, _, err := execute(t, "summary", writeFixture(t, "Cases_data.csv", casesCSV))
	require.NoError(t, err)

	assert.Contains(t, out, "File:    Cases_data.csv\n")
	assert.Contains(t, out, "Rows:    5 (4 aggregated, 1 skipped)\n")
	assert.Contains(t, out, "missing_state")
	assert.Contains(t, out, "States:  3\n")
	assert.Regexp(t, `2019\s+1,250\s+2\s+250\s+1,000`, out)
	assert.Regexp(t, `2020\s+7\s+1\s+7\s+7`, out)
}

func TestSummary_JSON(t *testing.T) {
	out, _, err := execute(t, "summary", writeFixture(t, "Cases_data.csv", casesCSV), "--format", "json")
	require.NoError(t, err)

	var got fileSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	lo, hi := 250.0, 1000.0
	seven := 7.0
	want := fileSummary{
		File:      "Cases_data.csv",
		Columns:   []string{"State", "Year", "Cases"},
		Rows:      5,
		Records:   4,
		Skipped:   1,
		SkippedBy: map[string]int{domain.SkipMissingState: 1},
		States:    []string{"Atlantis", "California", "Texas"},
		Years: []yearSummary{
			{Year: 2019, Total: 1250, States: 2, Min: &lo, Max: &hi},
			{Year: 2020, Total: 7, States: 1, Min: &seven, Max: &seven},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummary_YAMLSingleYear(t *testing.T) {
	out, _, err := execute(t, "summary", writeFixture(t, "Cases_data.csv", casesCSV), "-f", "yaml", "--year", "2020")
	require.NoError(t, err)

	var got fileSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Years, 1)
	assert.Equal(t, 2020, got.Years[0].Year)
	assert.InDelta(t, 7, got.Years[0].Total, 0)
}

func TestSummary_Errors(t *testing.T) {
	path := writeFixture(t, "Cases_data.csv", casesCSV)

	_, _, err := execute(t, "summary", path, "--year", "1999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year 1999 not in Cases_data.csv")

	_, _, err = execute(t, "summary", path, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestValidate_Passes(t *testing.T) {
	out, _, err := execute(t, "validate", writeFixture(t, "Cases_data.csv", casesCSV))
	require.NoError(t, err)

	assert.Contains(t, out, "=== Case Data Validation: Cases_data.csv ===")
	assert.Regexp(t, `Row accounting\s+PASS`, out)
	assert.Regexp(t, `Summation invariant\s+PASS`, out)
	assert.Regexp(t, `State names\s+PASS`, out)
	assert.Contains(t, out, "Records: 5 rows, 4 aggregated, 1 skipped, 3 states, 2 years")
	assert.Contains(t, out, `Note: unrecognized state "Atlantis"`)
	assert.Contains(t, out, "Note: 1 row(s) skipped: missing_state")
	assert.Contains(t, out, "All validations passed.")
}

func TestValidate_StrictFailsOnUnknownState(t *testing.T) {
	out, _, err := execute(t, "validate", "--strict", writeFixture(t, "Cases_data.csv", casesCSV))
	require.ErrorIs(t, err, errValidationFailed)

	assert.Regexp(t, `State names\s+FAIL \(1 errors\)`, out)
	assert.Contains(t, out, `[1] unrecognized state "Atlantis"`)
	assert.Contains(t, out, "Validation FAILED.")
}

func TestCheckSummation(t *testing.T) {
	ds := domain.Aggregate([]domain.CaseRecord{
		{State: "Texas", Year: 2019, Cases: 0.1},
		{State: "Texas", Year: 2019, Cases: 0.2},
		{State: "Ohio", Year: 2019, Cases: 0.3},
	})
	assert.True(t, checkSummation(ds).passed(), "float rounding is tolerated")

	ds.Pivot["Ohio"][2019] = 5
	p := checkSummation(ds)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "year 2019: pivot sums to")
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, nearlyEqual(0.1+0.2, 0.3))
	assert.True(t, nearlyEqual(0, 0))
	assert.False(t, nearlyEqual(1, 1.001))
}

func TestFixtures(t *testing.T) {
	path := writeFixture(t, "Cases_data.csv", casesCSV)
	dir := t.TempDir()
	rawOut := filepath.Join(dir, "cases_rows.json")
	summaryOut := filepath.Join(dir, "cases_summary.json")

	_, stderr, err := execute(t, "fixtures", path, "--raw-out", rawOut, "--summary-out", summaryOut)
	require.NoError(t, err)
	assert.Contains(t, stderr, "5 rows")
	assert.Contains(t, stderr, "3 states, 2 years")

	raw, err := os.ReadFile(rawOut)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"State": "Texas", "Year": "2019", "Cases": "200"}`)
	assert.Contains(t, string(raw), `{"Year": "2020", "Cases": "3"}`, "blank cells are left out")

	var s domain.Summary
	data, err := os.ReadFile(summaryOut)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, fixtureTime, s.LoadedAt)
	assert.Equal(t, map[int]float64{2019: 1250, 2020: 7}, s.YearTotals)
	assert.Equal(t, 5, s.Rows)

	// The raw fixture decodes back to the same aggregate.
	out, _, err := execute(t, "export", rawOut)
	require.NoError(t, err)
	csvOut, _, err := execute(t, "export", path)
	require.NoError(t, err)
	assert.Equal(t, csvOut, out)
}

func TestFixtures_RequiresOutput(t *testing.T) {
	_, _, err := execute(t, "fixtures", writeFixture(t, "Cases_data.csv", casesCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to do")
}
