package metrics

import (
	"context"
	"fmt"
	"time"

	"zapbook/internal/models"
	"zapbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator computes one tenant snapshot per (tenant, period) cell. It is
// stateless across invocations; every blocking dependency is injected.
type Calculator struct {
	appointmentRepo  repositories.AppointmentRepository
	conversationRepo repositories.ConversationRepository
	customerRepo     repositories.CustomerRepository
	serviceRepo      repositories.ServiceRepository
	rates            CostRates
	logger           *zap.Logger
}

func NewCalculator(
	appointmentRepo repositories.AppointmentRepository,
	conversationRepo repositories.ConversationRepository,
	customerRepo repositories.CustomerRepository,
	serviceRepo repositories.ServiceRepository,
	rates CostRates,
	logger *zap.Logger,
) *Calculator {
	return &Calculator{
		appointmentRepo:  appointmentRepo,
		conversationRepo: conversationRepo,
		customerRepo:     customerRepo,
		serviceRepo:      serviceRepo,
		rates:            rates,
		logger:           logger,
	}
}

// rawWindowData is everything a cell reads before the pure calculators run.
type rawWindowData struct {
	appointments  []*models.Appointment
	messages      []*models.ConversationMessage
	firstActivity []*models.CustomerActivity
	services      []*models.Service
}

// ComputeSnapshot runs every sub-calculator against the same resolved
// window and assembles the full payload. Any raw source failure aborts the
// whole cell: a partially populated snapshot is never returned.
func (c *Calculator) ComputeSnapshot(ctx context.Context, tenant *models.Tenant, period models.Period, calculationDate time.Time, totals *models.PlatformTotals) (*models.TenantMetricSnapshot, error) {
	window := ResolveWindow(period, calculationDate)

	raw, err := c.fetchWindow(ctx, tenant.ID, window)
	if err != nil {
		return nil, err
	}
	previous, err := c.fetchWindow(ctx, tenant.ID, window.Previous())
	if err != nil {
		return nil, err
	}

	payload := c.buildPayload(window, period, raw, previous, totals)

	snapshot := &models.TenantMetricSnapshot{
		ID:                uuid.New(),
		TenantID:          tenant.ID,
		Period:            period,
		MetricKind:        models.MetricKindComprehensive,
		Payload:           payload,
		CalculationDate:   calculationDate,
		PeriodStart:       window.Start,
		PeriodEnd:         window.End,
		CalculationMethod: models.CalculationMethod,
		DataQualityScore:  dataQuality(raw, totals),
	}

	if err := ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	c.logger.Debug("tenant snapshot computed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("period", string(period)),
		zap.String("revenue", payload.Financial.TotalRevenue.String()),
		zap.Int("appointments", payload.Appointments.Total))
	return snapshot, nil
}

func (c *Calculator) fetchWindow(ctx context.Context, tenantID uuid.UUID, w Window) (*rawWindowData, error) {
	raw := &rawWindowData{}
	var err error

	if raw.appointments, err = c.appointmentRepo.ListInWindow(ctx, tenantID, w.Start, w.End); err != nil {
		return nil, fmt.Errorf("%w: appointments: %v", ErrDataUnavailable, err)
	}
	if raw.messages, err = c.conversationRepo.ListInWindow(ctx, tenantID, w.Start, w.End); err != nil {
		return nil, fmt.Errorf("%w: conversations: %v", ErrDataUnavailable, err)
	}
	if raw.firstActivity, err = c.customerRepo.FirstActivities(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("%w: customer activity: %v", ErrDataUnavailable, err)
	}
	if raw.services, err = c.serviceRepo.ListActive(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("%w: services: %v", ErrDataUnavailable, err)
	}
	return raw, nil
}

func (c *Calculator) buildPayload(w Window, period models.Period, raw, previous *rawWindowData, totals *models.PlatformTotals) models.SnapshotPayload {
	customers := CalculateCustomers(w, raw.appointments, raw.messages, raw.firstActivity)
	financial := CalculateFinancial(raw.appointments, customers.TotalActive)
	appointments := CalculateAppointments(raw.appointments)
	conversations := CalculateConversations(raw.messages)
	ai := CalculateAIPerformance(raw.messages, conversations)
	services := CalculateServices(raw.services, raw.appointments)
	costs := CalculateCosts(c.rates, period.Days(), conversations, financial.TotalRevenue)
	outcomes := DeriveBusinessOutcomes(appointments, conversations, ai, costs)

	prevWindow := w.Previous()
	prevCustomers := CalculateCustomers(prevWindow, previous.appointments, previous.messages, previous.firstActivity)
	prevFinancial := CalculateFinancial(previous.appointments, prevCustomers.TotalActive)
	currentRevenue, _ := financial.TotalRevenue.Float64()
	previousRevenue, _ := prevFinancial.TotalRevenue.Float64()
	trend := models.HistoricalTrendMetrics{
		RevenueGrowthPct:     GrowthRate(currentRevenue, previousRevenue),
		AppointmentGrowthPct: GrowthRate(float64(len(raw.appointments)), float64(len(previous.appointments))),
		CustomerGrowthPct:    GrowthRate(float64(customers.TotalActive), float64(prevCustomers.TotalActive)),
	}

	return models.SnapshotPayload{
		Financial:             financial,
		Appointments:          appointments,
		Customers:             customers,
		ConversationOutcomes:  conversations,
		Services:              services,
		AIPerformance:         ai,
		CostBreakdown:         costs,
		BusinessOutcomes:      outcomes,
		HistoricalTrend:       trend,
		PlatformParticipation: participation(financial, appointments, customers, totals),
	}
}

// participation computes this tenant's share of the platform raw totals.
// Totals are resolved once per period by the orchestrator so every cell in
// a run divides by the same denominators.
func participation(financial models.FinancialMetrics, appointments models.AppointmentMetrics, customers models.CustomerMetrics, totals *models.PlatformTotals) models.PlatformParticipationMetrics {
	m := models.PlatformParticipationMetrics{}
	if totals == nil {
		return m
	}
	if totals.TotalRevenue.IsPositive() {
		share, _ := financial.TotalRevenue.Div(totals.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		m.RevenueSharePct = share
	}
	if totals.TotalAppointments > 0 {
		m.AppointmentSharePct = round2(float64(appointments.Total) / float64(totals.TotalAppointments) * 100)
	}
	if totals.TotalCustomers > 0 {
		m.CustomerSharePct = round2(float64(customers.TotalActive) / float64(totals.TotalCustomers) * 100)
	}
	return m
}

// dataQuality is the fraction of source-backed inputs that were present
// rather than defaulted, in [0,1]. A snapshot built entirely from empty
// sources is still valid (genuinely zero activity) but scores low so
// dashboards can tell the two apart.
func dataQuality(raw *rawWindowData, totals *models.PlatformTotals) float64 {
	const expected = 5
	present := 0
	if len(raw.appointments) > 0 {
		present++
	}
	if len(raw.messages) > 0 {
		present++
	}
	if len(raw.firstActivity) > 0 {
		present++
	}
	if len(raw.services) > 0 {
		present++
	}
	if totals != nil {
		present++
	}
	return float64(present) / float64(expected)
}
