package pipeline

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/disease-map-service/internal/domain"
)

// transform normalizes a decoded table and aggregates what survives. Skipped
// rows are counted per reason; a table with no usable rows is ErrEmptyDataset.
func (l *Loader) transform(info domain.DatasetInfo, table *domain.RawTable) (*domain.Dataset, error) {
	res := domain.Normalize(table.Rows)

	l.metrics.RowsParsed.Add(float64(len(table.Rows)))
	reasons := make([]string, 0, len(res.SkippedBy))
	for reason := range res.SkippedBy {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		n := res.SkippedBy[reason]
		l.metrics.RowsSkipped.WithLabelValues(reason).Add(float64(n))
		l.logger.Warn("rows skipped during normalization", "dataset", info.ID, "reason", reason, "count", n)
	}

	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", info.File, domain.ErrEmptyDataset)
	}
	return domain.NewDataset(res), nil
}
