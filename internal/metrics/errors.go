package metrics

import (
	"context"
	"errors"

	"zapbook/internal/models"
)

// Error taxonomy for the calculation pipeline. Sub-calculator and accessor
// failures wrap one of these sentinels so the orchestrator can classify
// cell outcomes without string matching.
var (
	// ErrDataUnavailable marks an unreachable or malformed raw data source.
	// It aborts the whole cell: a zero value must stay distinguishable from
	// "genuinely zero".
	ErrDataUnavailable = errors.New("raw data unavailable")

	// ErrValidationFailure marks a computed snapshot that fails a shape or
	// range check before persistence.
	ErrValidationFailure = errors.New("snapshot validation failed")

	// ErrPersistenceConflict marks a concurrent write race on the same
	// snapshot key.
	ErrPersistenceConflict = errors.New("snapshot persistence conflict")

	// ErrNoSnapshots marks an aggregation attempt over zero successful
	// tenant snapshots, which must never publish a platform snapshot.
	ErrNoSnapshots = errors.New("no tenant snapshots for period")
)

// ClassifyError maps a cell failure to the report's error kind.
func ClassifyError(err error) models.ErrorKind {
	switch {
	case err == nil:
		return models.ErrorKindNone
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindTimeout
	case errors.Is(err, ErrDataUnavailable):
		return models.ErrorKindDataUnavailable
	case errors.Is(err, ErrValidationFailure):
		return models.ErrorKindValidationFailure
	case errors.Is(err, ErrPersistenceConflict):
		return models.ErrorKindPersistenceConflict
	default:
		return models.ErrorKindInternal
	}
}
