package models

import "fmt"

// Period is one of the fixed rolling windows metrics are computed over.
type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
)

// SupportedPeriods lists every period the batch computes, in calculation order.
var SupportedPeriods = []Period{Period7d, Period30d, Period90d}

func (p Period) Days() int {
	switch p {
	case Period7d:
		return 7
	case Period30d:
		return 30
	case Period90d:
		return 90
	}
	return 0
}

func (p Period) Valid() bool {
	return p.Days() > 0
}

func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("unsupported period %q", s)
	}
	return p, nil
}

// MetricKind distinguishes snapshot flavors when multiple calculation
// strategies coexist for the same (tenant, period) key.
type MetricKind string

const MetricKindComprehensive MetricKind = "comprehensive"
