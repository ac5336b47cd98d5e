package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/couchcryptid/disease-map-service/internal/domain"
)

// Matrix renderer names, also accepted by ProbeMatrixRenderer as modes.
const (
	RendererAuto   = "auto"
	RendererMatrix = "matrix"
	RendererTable  = "table"
)

// MatrixPluginFile is the client-side matrix chart plugin looked for in the
// static assets directory.
const MatrixPluginFile = "chartjs-chart-matrix.min.js"

// Cell is one state-year square of the matrix.
type Cell struct {
	State string  `json:"state"`
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Matrix is the state-by-year view. Exactly one of Cells or HTML is set,
// depending on the renderer.
type Matrix struct {
	Renderer string        `json:"renderer"`
	Years    []int         `json:"years"`
	States   []string      `json:"states"`
	Cells    []Cell        `json:"cells,omitempty"`
	HTML     template.HTML `json:"html,omitempty"`
}

// MatrixRenderer draws the pivot as a state-by-year matrix colored over r.
type MatrixRenderer interface {
	Name() string
	Render(ds *domain.Dataset, r domain.Range, s domain.Scale) (Matrix, error)
}

// ProbeMatrixRenderer picks the renderer once at startup. In auto mode the
// rich matrix is used only when the plugin script is present in assetsDir.
func ProbeMatrixRenderer(mode, assetsDir string) (MatrixRenderer, error) {
	switch mode {
	case RendererMatrix:
		return RichMatrix{}, nil
	case RendererTable:
		return NewTableRenderer(), nil
	case RendererAuto, "":
		if assetsDir != "" {
			if fi, err := os.Stat(filepath.Join(assetsDir, MatrixPluginFile)); err == nil && !fi.IsDir() {
				return RichMatrix{}, nil
			}
		}
		return NewTableRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown matrix renderer %q", mode)
	}
}

// RichMatrix emits one colored cell per state and year for the matrix plugin.
type RichMatrix struct{}

func (RichMatrix) Name() string { return RendererMatrix }

func (RichMatrix) Render(ds *domain.Dataset, r domain.Range, s domain.Scale) (Matrix, error) {
	m := Matrix{Renderer: RendererMatrix, Years: ds.Years, States: ds.States}
	m.Cells = make([]Cell, 0, len(ds.Years)*len(ds.States))
	for _, st := range ds.States {
		for _, y := range ds.Years {
			v, _ := ds.Pivot.Value(st, y)
			m.Cells = append(m.Cells, Cell{State: st, Year: y, Value: v, Color: domain.Hex(s.ColorIn(v, true, r))})
		}
	}
	return m, nil
}

var tableTemplate = template.Must(template.New("matrix").Parse(
	`<table class="heatmap-table"><thead><tr><th>State</th>` +
		`{{range .Years}}<th>{{.}}</th>{{end}}</tr></thead><tbody>` +
		`{{range .Rows}}<tr><td class="state">{{.State}}</td>` +
		`{{range .Cells}}<td data-s="{{.State}}" data-y="{{.Year}}" style="background:{{.Color}}">{{.Text}}</td>{{end}}` +
		`</tr>{{end}}</tbody></table>`))

// TableRenderer renders the matrix as a plain HTML table.
type TableRenderer struct {
	tmpl *template.Template
}

func NewTableRenderer() *TableRenderer {
	return &TableRenderer{tmpl: tableTemplate}
}

func (*TableRenderer) Name() string { return RendererTable }

type tableCell struct {
	State string
	Year  int
	Text  string
	Color template.CSS
}

type tableRow struct {
	State string
	Cells []tableCell
}

func (t *TableRenderer) Render(ds *domain.Dataset, r domain.Range, s domain.Scale) (Matrix, error) {
	rows := make([]tableRow, len(ds.States))
	for i, st := range ds.States {
		rows[i] = tableRow{State: st, Cells: make([]tableCell, len(ds.Years))}
		for j, y := range ds.Years {
			v, _ := ds.Pivot.Value(st, y)
			rows[i].Cells[j] = tableCell{
				State: st,
				Year:  y,
				Text:  domain.FormatNumber(v),
				Color: template.CSS(domain.Hex(s.ColorIn(v, true, r))), //nolint:gosec // hex produced by Hex
			}
		}
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, struct {
		Years []int
		Rows  []tableRow
	}{ds.Years, rows}); err != nil {
		return Matrix{}, fmt.Errorf("render matrix table: %w", err)
	}
	return Matrix{
		Renderer: RendererTable,
		Years:    ds.Years,
		States:   ds.States,
		HTML:     template.HTML(buf.String()), //nolint:gosec // output of html/template
	}, nil
}
