package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset means the source was fetched and parsed but yielded no
	// usable rows. Callers should report "no data", not a fetch failure.
	ErrEmptyDataset = errors.New("dataset has no usable rows")

	// ErrUnknownDataset means the dataset identifier is not in the catalog.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrSuperseded is returned to a load whose result arrived after a newer
	// selection started. The result is discarded.
	ErrSuperseded = errors.New("load superseded by a newer selection")

	// ErrNoBoundaries means a map view was requested but no boundary file is
	// configured.
	ErrNoBoundaries = errors.New("no boundary file configured")
)

// LoadError reports that a source file could not be fetched or decoded.
type LoadError struct {
	Source string // file or URL that failed
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
