package platform

import (
	"context"
	"fmt"
	"sort"
	"time"

	"zapbook/internal/config"
	"zapbook/internal/metrics"
	"zapbook/internal/models"
	"zapbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Distortion index bounds: a tenant whose revenue share is less than half
// or more than double its usage share is flagged.
const (
	distortionLowerBound = 0.5
	distortionUpperBound = 2.0
)

// Aggregator folds all tenant snapshots of a period into one platform
// snapshot. It runs only after every cell of the period has reached a
// terminal state.
type Aggregator struct {
	snapshotRepo repositories.TenantSnapshotRepository
	platformRepo repositories.PlatformSnapshotRepository
	tenantRepo   repositories.TenantRepository
	cfg          *config.EngineConfig
	logger       *zap.Logger
}

func NewAggregator(
	snapshotRepo repositories.TenantSnapshotRepository,
	platformRepo repositories.PlatformSnapshotRepository,
	tenantRepo repositories.TenantRepository,
	cfg *config.EngineConfig,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		snapshotRepo: snapshotRepo,
		platformRepo: platformRepo,
		tenantRepo:   tenantRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// Aggregate reads the tenant snapshots written by the current run for the
// period, computes the platform snapshot and persists it. excludedTenants
// is the number of tenants whose cells failed: they are excluded from every
// total and recorded in metadata, never folded in as zero. A period with no
// successful snapshots is a hard failure.
func (a *Aggregator) Aggregate(ctx context.Context, period models.Period, calculationDate time.Time, excludedTenants int) (*models.PlatformMetricSnapshot, error) {
	snapshots, err := a.snapshotRepo.ListForPeriod(ctx, period, models.MetricKindComprehensive, calculationDate)
	if err != nil {
		return nil, fmt.Errorf("list tenant snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: period %s date %s", metrics.ErrNoSnapshots, period, calculationDate.Format("2006-01-02"))
	}

	comprehensive, err := a.comprehensive(ctx, snapshots)
	if err != nil {
		return nil, err
	}
	participation := a.participation(snapshots, comprehensive)
	ranking := a.ranking(snapshots, comprehensive)

	snapshot := &models.PlatformMetricSnapshot{
		ID:                  uuid.New(),
		Period:              period,
		MetricKind:          models.MetricKindComprehensive,
		CalculationDate:     calculationDate,
		Comprehensive:       comprehensive,
		Participation:       participation,
		Ranking:             ranking,
		IncludedTenantCount: len(snapshots),
		ExcludedTenantCount: excludedTenants,
		CalculationMethod:   models.CalculationMethod,
		DataQualityScore:    includedFraction(len(snapshots), excludedTenants),
	}

	if err := a.platformRepo.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist platform snapshot: %w", err)
	}

	a.logger.Info("platform aggregation completed",
		zap.String("period", string(period)),
		zap.String("total_revenue", comprehensive.TotalRevenue.String()),
		zap.Int("included_tenants", len(snapshots)),
		zap.Int("excluded_tenants", excludedTenants),
		zap.Int("active_tenants", comprehensive.ActiveTenants))
	return snapshot, nil
}

func (a *Aggregator) comprehensive(ctx context.Context, snapshots []*models.TenantMetricSnapshot) (models.PlatformComprehensiveMetrics, error) {
	m := models.PlatformComprehensiveMetrics{
		TotalRevenue: decimal.Zero,
		PlatformMRR:  decimal.Zero,
	}

	var completed, totalAppointments int
	var successRates, conversionRates []float64
	for _, s := range snapshots {
		p := s.Payload
		m.TotalRevenue = m.TotalRevenue.Add(p.Financial.TotalRevenue)
		m.TotalAppointments += p.Appointments.Total
		m.TotalConversations += p.ConversationOutcomes.TotalSessions
		m.TotalCustomers += p.Customers.TotalActive
		completed += p.Appointments.Completed
		totalAppointments += p.Appointments.Total
		if p.Appointments.Total > 0 {
			m.ActiveTenants++
		}
		if p.Appointments.SuccessRatePct > 0 {
			successRates = append(successRates, p.Appointments.SuccessRatePct)
		}
		if p.ConversationOutcomes.ConversionRatePct > 0 {
			conversionRates = append(conversionRates, p.ConversationOutcomes.ConversionRatePct)
		}
	}

	// MRR comes from the tenants' subscription plans, not from usage.
	tenants, err := a.tenantRepo.ListActive(ctx)
	if err != nil {
		return m, fmt.Errorf("list tenants for MRR: %w", err)
	}
	plans := make(map[uuid.UUID]string, len(tenants))
	for _, t := range tenants {
		plans[t.ID] = t.SubscriptionPlan
	}
	for _, s := range snapshots {
		if plan, ok := plans[s.TenantID]; ok {
			m.PlatformMRR = m.PlatformMRR.Add(a.cfg.PlanPrice(plan))
		}
	}

	m.AvgSuccessRatePct = mean(successRates)
	m.AvgConversionRatePct = mean(conversionRates)
	if totalAppointments > 0 {
		m.OperationalEffPct = float64(completed) / float64(totalAppointments) * 100
	}
	return m, nil
}

func (a *Aggregator) participation(snapshots []*models.TenantMetricSnapshot, comprehensive models.PlatformComprehensiveMetrics) models.PlatformParticipationSummary {
	summary := models.PlatformParticipationSummary{}

	usageAvg := 0.0
	if len(snapshots) > 0 {
		usageAvg = float64(comprehensive.TotalAppointments) / float64(len(snapshots))
	}

	totalRevenue := comprehensive.TotalRevenue
	for _, s := range snapshots {
		p := s.Payload
		share := models.TenantShare{TenantID: s.TenantID}

		if totalRevenue.IsPositive() {
			v, _ := p.Financial.TotalRevenue.Div(totalRevenue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
			share.RevenueSharePct = v
		}
		if comprehensive.TotalAppointments > 0 {
			share.UsageSharePct = float64(p.Appointments.Total) / float64(comprehensive.TotalAppointments) * 100
		}
		if share.UsageSharePct > 0 {
			share.DistortionIndex = share.RevenueSharePct / share.UsageSharePct
			share.Distorted = share.DistortionIndex < distortionLowerBound || share.DistortionIndex > distortionUpperBound
		}
		if share.Distorted {
			summary.DistortedTenants++
		}
		if float64(p.Appointments.Total) > usageAvg {
			summary.TenantsAboveUsageAvg++
		} else {
			summary.TenantsBelowUsageAvg++
		}
		summary.Shares = append(summary.Shares, share)
	}

	if comprehensive.PlatformMRR.IsPositive() {
		ratio, _ := totalRevenue.Div(comprehensive.PlatformMRR).Round(2).Float64()
		summary.RevenueUsageRatio = ratio
	}
	return summary
}

// ranking scores each tenant with the production weights: revenue 40%,
// customers 25%, appointments 25%, growth 10%, each normalized against the
// period's maximum.
func (a *Aggregator) ranking(snapshots []*models.TenantMetricSnapshot, comprehensive models.PlatformComprehensiveMetrics) models.PlatformRankingMetrics {
	m := models.PlatformRankingMetrics{
		RiskDistribution: make(map[string]int),
	}

	var maxRevenue, maxCustomers, maxAppointments, maxGrowth float64
	var healthScores, efficiencies []float64
	for _, s := range snapshots {
		p := s.Payload
		revenue, _ := p.Financial.TotalRevenue.Float64()
		maxRevenue = maxf(maxRevenue, revenue)
		maxCustomers = maxf(maxCustomers, float64(p.Customers.TotalActive))
		maxAppointments = maxf(maxAppointments, float64(p.Appointments.Total))
		maxGrowth = maxf(maxGrowth, p.HistoricalTrend.RevenueGrowthPct)
		m.RiskDistribution[p.BusinessOutcomes.RiskTier]++
		healthScores = append(healthScores, p.BusinessOutcomes.HealthScore)
		if p.AIPerformance.EfficiencyPct > 0 {
			efficiencies = append(efficiencies, p.AIPerformance.EfficiencyPct)
		}
	}

	for _, s := range snapshots {
		p := s.Payload
		revenue, _ := p.Financial.TotalRevenue.Float64()
		score := normalized(revenue, maxRevenue)*0.40 +
			normalized(float64(p.Customers.TotalActive), maxCustomers)*0.25 +
			normalized(float64(p.Appointments.Total), maxAppointments)*0.25 +
			normalized(p.HistoricalTrend.RevenueGrowthPct, maxGrowth)*0.10
		m.Rankings = append(m.Rankings, models.TenantRank{TenantID: s.TenantID, Score: score})
	}
	sort.SliceStable(m.Rankings, func(i, j int) bool {
		return m.Rankings[i].Score > m.Rankings[j].Score
	})
	for i := range m.Rankings {
		m.Rankings[i].Position = i + 1
	}

	m.HealthIndex = mean(healthScores)
	m.EfficiencyIndex = comprehensive.OperationalEffPct
	m.OverallScore = comprehensive.AvgSuccessRatePct*0.30 +
		comprehensive.AvgConversionRatePct*0.25 +
		mean(efficiencies)*0.25 +
		m.HealthIndex*0.20
	return m
}

func includedFraction(included, excluded int) float64 {
	total := included + excluded
	if total == 0 {
		return 0
	}
	return float64(included) / float64(total)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func normalized(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max * 100
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
