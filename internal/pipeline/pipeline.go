package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/couchcryptid/disease-map-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Fetcher returns the raw bytes of a named source file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Decoder turns a fetched file into a raw table. The name carries the
// extension used to pick a format.
type Decoder interface {
	Decode(name string, data []byte) (*domain.RawTable, error)
}

// Publisher announces a freshly loaded dataset.
type Publisher interface {
	PublishSummary(ctx context.Context, s domain.Summary) error
}

// Result is everything one dataset load produces.
type Result struct {
	Info       domain.DatasetInfo
	Table      *domain.RawTable
	Dataset    *domain.Dataset
	Boundaries *domain.FeatureCollection // nil when no boundary file is configured
	Summary    domain.Summary
}

// Loader fetches, decodes, normalizes and aggregates one dataset per call.
type Loader struct {
	fetcher      Fetcher
	decoder      Decoder
	catalog      domain.Catalog
	boundaryFile string
	publisher    Publisher
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Loader. boundaryFile may be empty to skip map boundaries and
// publisher may be nil to disable summary publishing.
func New(f Fetcher, d Decoder, catalog domain.Catalog, boundaryFile string, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		fetcher:      f,
		decoder:      d,
		catalog:      catalog,
		boundaryFile: boundaryFile,
		publisher:    pub,
		logger:       logger,
		metrics:      metrics,
	}
}

// Catalog returns the datasets this loader can serve.
func (l *Loader) Catalog() domain.Catalog {
	return l.catalog
}

// CheckReadiness returns nil once at least one dataset has loaded.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("no dataset has been loaded yet")
	}
	return nil
}

// Load runs one full load of datasetID. The data file and the boundary file
// are fetched concurrently and both must arrive before aggregation starts.
//
// Errors: domain.ErrUnknownDataset for ids not in the catalog, *domain.LoadError
// for fetch or decode failures, domain.ErrEmptyDataset when the file has the
// wrong shape or no row survives normalization, and the context error on
// cancellation.
func (l *Loader) Load(ctx context.Context, datasetID string) (*Result, error) {
	info, ok := l.catalog.Lookup(datasetID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, datasetID)
	}

	start := time.Now()
	res, outcome, err := l.load(ctx, info)
	l.metrics.Loads.WithLabelValues(info.ID, outcome).Inc()
	if err != nil {
		if outcome != outcomeCanceled {
			l.logger.Error("dataset load failed", "dataset", info.ID, "outcome", outcome, "error", err)
		}
		return nil, err
	}

	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.ready.Store(true)
	l.logger.Info("dataset loaded",
		"dataset", info.ID,
		"rows", len(res.Table.Rows),
		"skipped", res.Dataset.Skipped,
		"states", len(res.Dataset.States),
		"years", len(res.Dataset.Years),
	)

	l.publish(ctx, res.Summary)
	return res, nil
}

const (
	outcomeSuccess     = "success"
	outcomeFetchError  = "fetch_error"
	outcomeDecodeError = "decode_error"
	outcomeEmpty       = "empty"
	outcomeCanceled    = "canceled"
)

func (l *Loader) load(ctx context.Context, info domain.DatasetInfo) (*Result, string, error) {
	var data, geo []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := l.fetcher.Fetch(gctx, info.File)
		if err != nil {
			return &domain.LoadError{Source: info.File, Err: err}
		}
		data = b
		return nil
	})
	if l.boundaryFile != "" {
		g.Go(func() error {
			b, err := l.fetcher.Fetch(gctx, l.boundaryFile)
			if err != nil {
				return &domain.LoadError{Source: l.boundaryFile, Err: err}
			}
			geo = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, outcomeCanceled, ctx.Err()
		}
		return nil, outcomeFetchError, err
	}

	table, err := l.decoder.Decode(info.File, data)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDataset) {
			return nil, outcomeEmpty, fmt.Errorf("%s: %w", info.File, err)
		}
		return nil, outcomeDecodeError, &domain.LoadError{Source: info.File, Err: err}
	}

	var boundaries *domain.FeatureCollection
	if geo != nil {
		boundaries, err = domain.ParseBoundaries(geo)
		if err != nil {
			return nil, outcomeDecodeError, &domain.LoadError{Source: l.boundaryFile, Err: err}
		}
	}

	ds, err := l.transform(info, table)
	if err != nil {
		return nil, outcomeEmpty, err
	}

	return &Result{
		Info:       info,
		Table:      table,
		Dataset:    ds,
		Boundaries: boundaries,
		Summary:    domain.NewSummary(info.ID, ds, len(table.Rows)),
	}, outcomeSuccess, nil
}

// publish sends the summary if a publisher is configured. Failures are logged
// and counted but never fail the load.
func (l *Loader) publish(ctx context.Context, s domain.Summary) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishSummary(ctx, s); err != nil {
		l.metrics.SummariesPublished.WithLabelValues("error").Inc()
		l.logger.Warn("publish summary failed", "dataset", s.Dataset, "error", err)
		return
	}
	l.metrics.SummariesPublished.WithLabelValues("success").Inc()
}
