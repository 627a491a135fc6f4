package metrics

import (
	"testing"
	"time"

	"zapbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveWindow(t *testing.T) {
	calc := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	w := ResolveWindow(models.Period7d, calc)
	assert.Equal(t, time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, calc, w.End)

	w30 := ResolveWindow(models.Period30d, calc)
	assert.Equal(t, time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC), w30.Start)

	w90 := ResolveWindow(models.Period90d, calc)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), w90.Start)
}

func TestResolveWindowNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	calc := time.Date(2025, 8, 10, 0, 0, 0, 0, loc)

	w := ResolveWindow(models.Period7d, calc)
	assert.Equal(t, time.UTC, w.End.Location())
	assert.Equal(t, calc.UTC(), w.End)
}

func TestWindowContainsHalfOpen(t *testing.T) {
	w := ResolveWindow(models.Period7d, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC))

	// Start boundary is included, end boundary excluded.
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
}

func TestWindowPreviousIsAdjacentAndSameLength(t *testing.T) {
	w := ResolveWindow(models.Period30d, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC))
	prev := w.Previous()

	assert.Equal(t, w.Start, prev.End)
	assert.Equal(t, w.End.Sub(w.Start), prev.End.Sub(prev.Start))

	// A record exactly on the shared boundary belongs to the current
	// window only.
	assert.True(t, w.Contains(w.Start))
	assert.False(t, prev.Contains(w.Start))
}

func TestNormalizeCalculationDate(t *testing.T) {
	in := time.Date(2025, 8, 10, 17, 42, 9, 123, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), NormalizeCalculationDate(in))

	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2025, 8, 10, 22, 30, 0, 0, loc) // 01:30 UTC next day
	assert.Equal(t, time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC), NormalizeCalculationDate(late))
}
