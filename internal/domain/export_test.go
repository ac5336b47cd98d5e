package domain

import (
	"bytes"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePivotCSV(t *testing.T) {
	ds := NewDataset(Normalize(scenarioRows()))

	var buf bytes.Buffer
	require.NoError(t, WritePivotCSV(&buf, ds))

	want := `"State","2019","2020"
"California","0","500"
"Texas","200","300"
`
	assert.Equal(t, want, buf.String())
}

func TestWritePivotCSV_EscapesQuotes(t *testing.T) {
	ds := Aggregate([]CaseRecord{{State: `Say "Hi"`, Year: 2020, Cases: 1.5}})

	var buf bytes.Buffer
	require.NoError(t, WritePivotCSV(&buf, ds))

	assert.Equal(t, "\"State\",\"2020\"\n\"Say \"\"Hi\"\"\",\"1.5\"\n", buf.String())
}

func TestWritePivotCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePivotCSV(&buf, Aggregate(nil)))
	assert.Equal(t, "\"State\"\n", buf.String())
}

func TestNewSummary(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	ds := NewDataset(Normalize(append(scenarioRows(), RawRow{"State": "Ohio"})))
	s := NewSummary("HIV_data.xlsx", ds, 4)

	assert.Equal(t, "HIV_data.xlsx", s.Dataset)
	assert.Equal(t, []int{2019, 2020}, s.Years)
	assert.Equal(t, 2, s.StateCount)
	assert.Equal(t, map[int]float64{2019: 200, 2020: 800}, s.YearTotals)
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC), s.LoadedAt)
}
