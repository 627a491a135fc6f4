package platform

import (
	"context"
	"fmt"
	"time"

	"zapbook/internal/models"
	"zapbook/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciliation tolerance for decimal sums. Snapshots are stored rounded
// to cents, so anything above a cent is a real discrepancy.
var revenueTolerance = decimal.RequireFromString("0.01")

// Data quality bands, best to worst.
const (
	qualityClean          = 98
	qualitySmallDrift     = 95
	qualityLargeDrift     = 90
	qualityMissingFew     = 85
	qualityMissingMany    = 75
	smallDriftPctOfTotal  = 1.0
	missingFewMinCoverage = 0.9
)

// Validator runs after a batch and checks that what the report claims
// happened is what the store actually holds.
type Validator struct {
	snapshotRepo repositories.TenantSnapshotRepository
	platformRepo repositories.PlatformSnapshotRepository
	logger       *zap.Logger
}

func NewValidator(
	snapshotRepo repositories.TenantSnapshotRepository,
	platformRepo repositories.PlatformSnapshotRepository,
	logger *zap.Logger,
) *Validator {
	return &Validator{
		snapshotRepo: snapshotRepo,
		platformRepo: platformRepo,
		logger:       logger,
	}
}

// ValidatePeriod cross-checks one period of a finished run: the persisted
// tenant snapshot count must match the report's succeeded cells, and the
// platform snapshot's totals must reconcile against a fresh re-sum of the
// tenant snapshots. Discrepancies are reported, never repaired.
func (v *Validator) ValidatePeriod(ctx context.Context, period models.Period, calculationDate time.Time, succeededCells int) (models.PeriodValidation, error) {
	result := models.PeriodValidation{
		Period:            period,
		ExpectedSnapshots: succeededCells,
		RevenueDelta:      "0",
	}

	snapshots, err := v.snapshotRepo.ListForPeriod(ctx, period, models.MetricKindComprehensive, calculationDate)
	if err != nil {
		return result, fmt.Errorf("list tenant snapshots: %w", err)
	}
	result.FoundSnapshots = len(snapshots)
	if result.FoundSnapshots != result.ExpectedSnapshots {
		result.Issues = append(result.Issues,
			fmt.Sprintf("snapshot count mismatch: report says %d succeeded, store holds %d", succeededCells, len(snapshots)))
	}

	resummed := decimal.Zero
	for _, s := range snapshots {
		resummed = resummed.Add(s.Payload.Financial.TotalRevenue)
	}

	platform, err := v.platformRepo.Get(ctx, period, models.MetricKindComprehensive, calculationDate)
	if err != nil {
		return result, fmt.Errorf("load platform snapshot: %w", err)
	}
	delta := platform.Comprehensive.TotalRevenue.Sub(resummed).Abs()
	result.RevenueDelta = delta.String()
	if delta.GreaterThan(revenueTolerance) {
		result.Issues = append(result.Issues,
			fmt.Sprintf("revenue does not reconcile: platform %s vs re-summed %s", platform.Comprehensive.TotalRevenue, resummed))
	}
	if platform.IncludedTenantCount != len(snapshots) {
		result.Issues = append(result.Issues,
			fmt.Sprintf("platform snapshot includes %d tenants, store holds %d", platform.IncludedTenantCount, len(snapshots)))
	}

	result.QualityScore = v.score(result, delta, platform.Comprehensive.TotalRevenue)

	if len(result.Issues) > 0 {
		v.logger.Warn("consistency validation found discrepancies",
			zap.String("period", string(period)),
			zap.Float64("quality_score", result.QualityScore),
			zap.Strings("issues", result.Issues))
	} else {
		v.logger.Info("consistency validation passed",
			zap.String("period", string(period)),
			zap.Float64("quality_score", result.QualityScore))
	}
	return result, nil
}

func (v *Validator) score(result models.PeriodValidation, delta, total decimal.Decimal) float64 {
	countsMatch := result.FoundSnapshots == result.ExpectedSnapshots
	if countsMatch {
		if delta.LessThanOrEqual(revenueTolerance) {
			return qualityClean
		}
		if total.IsPositive() {
			pct, _ := delta.Div(total).Mul(decimal.NewFromInt(100)).Float64()
			if pct <= smallDriftPctOfTotal {
				return qualitySmallDrift
			}
		}
		return qualityLargeDrift
	}
	if result.ExpectedSnapshots > 0 &&
		float64(result.FoundSnapshots)/float64(result.ExpectedSnapshots) >= missingFewMinCoverage {
		return qualityMissingFew
	}
	return qualityMissingMany
}
