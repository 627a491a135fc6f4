package models

import (
	"time"

	"github.com/google/uuid"
)

type CellStatus string

const (
	CellSucceeded    CellStatus = "succeeded"
	CellFailed       CellStatus = "failed"
	CellNotAttempted CellStatus = "not_attempted"
)

type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindDataUnavailable     ErrorKind = "data_unavailable"
	ErrorKindValidationFailure   ErrorKind = "validation_failure"
	ErrorKindPersistenceConflict ErrorKind = "persistence_conflict"
	ErrorKindTimeout             ErrorKind = "timeout"
	ErrorKindInternal            ErrorKind = "internal"
)

// CellResult is the terminal outcome of one (tenant, period) cell. Every
// cell of a run appears exactly once in the report.
type CellResult struct {
	TenantID  uuid.UUID     `json:"tenant_id"`
	Period    Period        `json:"period"`
	Status    CellStatus    `json:"status"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

type PeriodSummary struct {
	Period       Period `json:"period"`
	Attempted    int    `json:"attempted"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
	NotAttempted int    `json:"not_attempted"`
	Aggregated   bool   `json:"aggregated"`
}

// PeriodValidation is the post-run consistency check for one period:
// every succeeded cell must have a persisted snapshot, and the platform
// totals must reconcile against a re-sum of the tenant snapshots.
type PeriodValidation struct {
	Period            Period   `json:"period"`
	ExpectedSnapshots int      `json:"expected_snapshots"`
	FoundSnapshots    int      `json:"found_snapshots"`
	RevenueDelta      string   `json:"revenue_delta"`
	QualityScore      float64  `json:"quality_score"`
	Issues            []string `json:"issues,omitempty"`
}

// BatchReport is the single source of truth for what a run did.
type BatchReport struct {
	CalculationDate time.Time          `json:"calculation_date"`
	StartedAt       time.Time          `json:"started_at"`
	FinishedAt      time.Time          `json:"finished_at"`
	TenantCount     int                `json:"tenant_count"`
	Periods         []Period           `json:"periods"`
	Cells           []CellResult       `json:"cells"`
	Summaries       []PeriodSummary    `json:"summaries"`
	Validations     []PeriodValidation `json:"validations,omitempty"`
}

// Summarize recomputes the per-period summaries from the cell results.
func (r *BatchReport) Summarize() {
	byPeriod := make(map[Period]*PeriodSummary, len(r.Periods))
	r.Summaries = r.Summaries[:0]
	for _, p := range r.Periods {
		s := &PeriodSummary{Period: p}
		byPeriod[p] = s
	}
	for _, c := range r.Cells {
		s, ok := byPeriod[c.Period]
		if !ok {
			continue
		}
		switch c.Status {
		case CellSucceeded:
			s.Attempted++
			s.Succeeded++
		case CellFailed:
			s.Attempted++
			s.Failed++
		case CellNotAttempted:
			s.NotAttempted++
		}
	}
	for _, p := range r.Periods {
		r.Summaries = append(r.Summaries, *byPeriod[p])
	}
}

func (r *BatchReport) Totals() (attempted, succeeded, failed, notAttempted int) {
	for _, c := range r.Cells {
		switch c.Status {
		case CellSucceeded:
			attempted++
			succeeded++
		case CellFailed:
			attempted++
			failed++
		case CellNotAttempted:
			notAttempted++
		}
	}
	return
}

// FailuresFor lists the failed cells for a period, for operator repair.
func (r *BatchReport) FailuresFor(period Period) []CellResult {
	var out []CellResult
	for _, c := range r.Cells {
		if c.Period == period && c.Status == CellFailed {
			out = append(out, c)
		}
	}
	return out
}

// SucceededTenants returns the tenant ids whose cell for the period
// succeeded; the aggregator includes exactly these.
func (r *BatchReport) SucceededTenants(period Period) []uuid.UUID {
	var out []uuid.UUID
	for _, c := range r.Cells {
		if c.Period == period && c.Status == CellSucceeded {
			out = append(out, c.TenantID)
		}
	}
	return out
}
