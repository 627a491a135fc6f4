package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TenantSnapshotRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    TenantSnapshotRepository
	context context.Context
}

func (suite *TenantSnapshotRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewTenantSnapshotRepo(mock)
	suite.context = context.Background()
}

func (suite *TenantSnapshotRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestTenantSnapshotRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantSnapshotRepoTestSuite))
}

func testSnapshot() *models.TenantMetricSnapshot {
	calc := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	return &models.TenantMetricSnapshot{
		ID:              uuid.New(),
		TenantID:        uuid.New(),
		Period:          models.Period7d,
		MetricKind:      models.MetricKindComprehensive,
		CalculationDate: calc,
		PeriodStart:     calc.AddDate(0, 0, -7),
		PeriodEnd:       calc,
		Payload: models.SnapshotPayload{
			Financial: models.FinancialMetrics{TotalRevenue: decimal.RequireFromString("300.00")},
			Appointments: models.AppointmentMetrics{
				Total: 4, Completed: 3, Cancelled: 1, CancelledOrNoShow: 1, SuccessRatePct: 75,
			},
		},
		CalculationMethod: models.CalculationMethod,
		DataQualityScore:  0.8,
	}
}

func (suite *TenantSnapshotRepoTestSuite) TestUpsert_Success() {
	s := testSnapshot()

	suite.mock.ExpectExec(`INSERT INTO tenant_metric_snapshots`).
		WithArgs(s.ID, s.TenantID, string(s.Period), string(s.MetricKind),
			pgxmock.AnyArg(), s.CalculationDate, s.PeriodStart, s.PeriodEnd,
			s.CalculationMethod, s.DataQualityScore).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Upsert(suite.context, s)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *TenantSnapshotRepoTestSuite) TestUpsert_ZeroRowsAffectedIsAnError() {
	s := testSnapshot()

	suite.mock.ExpectExec(`INSERT INTO tenant_metric_snapshots`).
		WithArgs(s.ID, s.TenantID, string(s.Period), string(s.MetricKind),
			pgxmock.AnyArg(), s.CalculationDate, s.PeriodStart, s.PeriodEnd,
			s.CalculationMethod, s.DataQualityScore).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := suite.repo.Upsert(suite.context, s)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "affected 0 rows")
}

func (suite *TenantSnapshotRepoTestSuite) TestUpsert_ExecError() {
	s := testSnapshot()

	suite.mock.ExpectExec(`INSERT INTO tenant_metric_snapshots`).
		WithArgs(s.ID, s.TenantID, string(s.Period), string(s.MetricKind),
			pgxmock.AnyArg(), s.CalculationDate, s.PeriodStart, s.PeriodEnd,
			s.CalculationMethod, s.DataQualityScore).
		WillReturnError(errors.New("deadlock detected"))

	err := suite.repo.Upsert(suite.context, s)
	assert.Error(suite.T(), err)
}

func (suite *TenantSnapshotRepoTestSuite) TestGet_Success() {
	s := testSnapshot()
	payload, err := json.Marshal(s.Payload)
	assert.NoError(suite.T(), err)

	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "period", "metric_kind", "payload", "calculation_date",
		"period_start", "period_end", "calculation_method", "data_quality_score", "calculated_at",
	}).AddRow(s.ID, s.TenantID, string(s.Period), string(s.MetricKind), payload, s.CalculationDate,
		s.PeriodStart, s.PeriodEnd, s.CalculationMethod, s.DataQualityScore, time.Now().UTC())

	suite.mock.ExpectQuery(`SELECT .* FROM tenant_metric_snapshots`).
		WithArgs(s.TenantID, string(s.Period), string(s.MetricKind)).
		WillReturnRows(rows)

	got, err := suite.repo.Get(suite.context, s.TenantID, s.Period, s.MetricKind)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), s.TenantID, got.TenantID)
	assert.Equal(suite.T(), 4, got.Payload.Appointments.Total)
	assert.True(suite.T(), got.Payload.Financial.TotalRevenue.Equal(decimal.RequireFromString("300.00")))
}

func (suite *TenantSnapshotRepoTestSuite) TestListForPeriod_FiltersByCalculationDate() {
	s := testSnapshot()
	payload, err := json.Marshal(s.Payload)
	assert.NoError(suite.T(), err)

	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "period", "metric_kind", "payload", "calculation_date",
		"period_start", "period_end", "calculation_method", "data_quality_score", "calculated_at",
	}).AddRow(s.ID, s.TenantID, string(s.Period), string(s.MetricKind), payload, s.CalculationDate,
		s.PeriodStart, s.PeriodEnd, s.CalculationMethod, s.DataQualityScore, time.Now().UTC())

	suite.mock.ExpectQuery(`SELECT .* FROM tenant_metric_snapshots`).
		WithArgs(string(s.Period), string(s.MetricKind), s.CalculationDate).
		WillReturnRows(rows)

	got, err := suite.repo.ListForPeriod(suite.context, s.Period, s.MetricKind, s.CalculationDate)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), got, 1)
	assert.Equal(suite.T(), s.TenantID, got[0].TenantID)
}

func (suite *TenantSnapshotRepoTestSuite) TestCountForPeriod() {
	calc := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(string(models.Period7d), string(models.MetricKindComprehensive), calc).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	count, err := suite.repo.CountForPeriod(suite.context, models.Period7d, models.MetricKindComprehensive, calc)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12, count)
}
