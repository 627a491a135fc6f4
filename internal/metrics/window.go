package metrics

import (
	"time"

	"zapbook/internal/models"
)

// Window is a half-open UTC time range [Start, End). End is the calculation
// instant fixed once for the whole batch run; Start is End minus the period
// length. Every place raw data is filtered by time must use Contains (or the
// equivalent >= start AND < end SQL predicate) so the boundary policy is
// never re-derived ad hoc.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow computes the window for a period ending at calculationDate,
// normalized to UTC.
func ResolveWindow(period models.Period, calculationDate time.Time) Window {
	end := calculationDate.UTC()
	return Window{
		Start: end.AddDate(0, 0, -period.Days()),
		End:   end,
	}
}

// Previous returns the adjacent window of the same length ending at Start,
// used for historical trend comparison.
func (w Window) Previous() Window {
	return Window{
		Start: w.Start.Add(-w.End.Sub(w.Start)),
		End:   w.Start,
	}
}

// Contains reports whether t falls inside the half-open range: a record
// timestamped exactly at Start is included, one exactly at End is excluded.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}

// NormalizeCalculationDate pins a run's calculation instant to UTC midnight
// so every cell in the batch shares the identical window regardless of
// wall-clock drift while the run executes.
func NormalizeCalculationDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
