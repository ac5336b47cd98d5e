// Package dashboard ties dataset loading to the chart views and owns the
// current selection.
package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/disease-map-service/internal/chart"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/couchcryptid/disease-map-service/internal/pipeline"
)

// Loader loads one dataset by id.
type Loader interface {
	Load(ctx context.Context, datasetID string) (*pipeline.Result, error)
	Catalog() domain.Catalog
}

// Current is the view attached for the active selection.
type Current struct {
	Selection domain.Selection   `json:"selection"`
	Overview  *chart.Overview    `json:"overview"`
	State     *chart.StateDetail `json:"state,omitempty"`
}

// Dispose detaches both views.
func (c *Current) Dispose() {
	c.Overview.Dispose()
	if c.State != nil {
		c.State.Dispose()
	}
}

// Board serves dashboard views. Selections are last-request-wins: a newer
// Select cancels the load of an older one, and an older result that still
// completes is discarded.
type Board struct {
	loader      Loader
	opts        chart.Options
	defaultYear int
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	slot   *chart.Slot
}

// New creates a Board.
func New(loader Loader, opts chart.Options, defaultYear int, logger *slog.Logger, metrics *observability.Metrics) *Board {
	return &Board{
		loader:      loader,
		opts:        opts,
		defaultYear: defaultYear,
		logger:      logger,
		metrics:     metrics,
		slot:        chart.NewSlot(metrics.ActiveViews),
	}
}

// Catalog lists the selectable datasets.
func (b *Board) Catalog() domain.Catalog {
	return b.loader.Catalog()
}

// Select loads sel and attaches its views as the current selection. When a
// newer Select starts before this one finishes, it returns
// domain.ErrSuperseded and leaves the current view alone.
func (b *Board) Select(ctx context.Context, sel domain.Selection) (*Current, error) {
	sel = b.withDefaults(sel)

	b.mu.Lock()
	b.gen++
	gen := b.gen
	if b.cancel != nil {
		b.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	res, err := b.loader.Load(lctx, sel.Dataset)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		b.metrics.Superseded.Inc()
		b.logger.Debug("selection superseded", "dataset", sel.Dataset, "year", sel.Year)
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	sel.Year = b.resolveYear(sel.Year, res.Dataset)
	overview, err := chart.BuildOverview(res.Info, res.Dataset, sel.Year, b.opts)
	if err != nil {
		return nil, err
	}
	cur := &Current{Selection: sel, Overview: overview}
	if sel.State != "" {
		cur.State = chart.BuildStateDetail(res.Info, res.Table, res.Dataset, sel.State)
	}

	b.slot.Replace(cur)
	b.logger.Info("selection applied", "dataset", sel.Dataset, "year", sel.Year, "state", sel.State)
	return cur, nil
}

// Current returns the attached selection view, or nil before the first
// successful Select.
func (b *Board) Current() *Current {
	v := b.slot.Current()
	if v == nil {
		return nil
	}
	return v.(*Current)
}

// Overview loads datasetID and builds the national view for year. A zero year
// picks the default.
func (b *Board) Overview(ctx context.Context, datasetID string, year int) (*chart.Overview, error) {
	res, err := b.loader.Load(ctx, b.datasetOrDefault(datasetID))
	if err != nil {
		return nil, err
	}
	return chart.BuildOverview(res.Info, res.Dataset, b.resolveYear(year, res.Dataset), b.opts)
}

// Choropleth returns the boundary features colored for year.
func (b *Board) Choropleth(ctx context.Context, datasetID string, year int) (*domain.FeatureCollection, error) {
	res, err := b.loader.Load(ctx, b.datasetOrDefault(datasetID))
	if err != nil {
		return nil, err
	}
	if res.Boundaries == nil {
		return nil, domain.ErrNoBoundaries
	}
	values := res.Dataset.StateValuesForYear(b.resolveYear(year, res.Dataset))
	r := domain.ValueRange(domain.SortedValues(values))
	return chart.Choropleth(res.Boundaries, values, r, b.opts.Scale), nil
}

// StateDetail loads datasetID and builds the drill-down for state.
func (b *Board) StateDetail(ctx context.Context, datasetID, state string) (*chart.StateDetail, error) {
	res, err := b.loader.Load(ctx, b.datasetOrDefault(datasetID))
	if err != nil {
		return nil, err
	}
	return chart.BuildStateDetail(res.Info, res.Table, res.Dataset, state), nil
}

// Years returns the sorted years present in datasetID.
func (b *Board) Years(ctx context.Context, datasetID string) ([]int, error) {
	res, err := b.loader.Load(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return res.Dataset.Years, nil
}

// ExportCSV writes the pivot of datasetID as CSV.
func (b *Board) ExportCSV(ctx context.Context, datasetID string, w io.Writer) error {
	res, err := b.loader.Load(ctx, b.datasetOrDefault(datasetID))
	if err != nil {
		return err
	}
	return domain.WritePivotCSV(w, res.Dataset)
}

func (b *Board) withDefaults(sel domain.Selection) domain.Selection {
	sel.Dataset = b.datasetOrDefault(sel.Dataset)
	return sel
}

func (b *Board) datasetOrDefault(id string) string {
	if id != "" {
		return id
	}
	if c := b.loader.Catalog(); len(c) > 0 {
		return c[0].ID
	}
	return id
}

// resolveYear keeps an explicit year even when the dataset has no data for it.
// A zero year becomes the default year, or the latest year when the default
// is not in the dataset.
func (b *Board) resolveYear(year int, ds *domain.Dataset) int {
	if year != 0 {
		return year
	}
	if ds.HasYear(b.defaultYear) || ds.LatestYear() == 0 {
		return b.defaultYear
	}
	return ds.LatestYear()
}
