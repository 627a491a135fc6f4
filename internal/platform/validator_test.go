package platform

import (
	"context"
	"testing"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ValidatorTestSuite struct {
	suite.Suite
	snapshotRepo    *MockTenantSnapshotRepository
	platformRepo    *MockPlatformSnapshotRepository
	validator       *Validator
	calculationDate time.Time
}

func (s *ValidatorTestSuite) SetupTest() {
	s.snapshotRepo = new(MockTenantSnapshotRepository)
	s.platformRepo = new(MockPlatformSnapshotRepository)
	s.validator = NewValidator(s.snapshotRepo, s.platformRepo, zap.NewNop())
	s.calculationDate = time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
}

func (s *ValidatorTestSuite) stubStore(snapshots []*models.TenantMetricSnapshot, platformRevenue string, includedCount int) {
	s.snapshotRepo.On("ListForPeriod", mock.Anything, models.Period30d, models.MetricKindComprehensive, s.calculationDate).
		Return(snapshots, nil)
	s.platformRepo.On("Get", mock.Anything, models.Period30d, models.MetricKindComprehensive, s.calculationDate).
		Return(&models.PlatformMetricSnapshot{
			Period:              models.Period30d,
			Comprehensive:       models.PlatformComprehensiveMetrics{TotalRevenue: decimal.RequireFromString(platformRevenue)},
			IncludedTenantCount: includedCount,
		}, nil)
}

func revenueSnapshot(revenue string) *models.TenantMetricSnapshot {
	return &models.TenantMetricSnapshot{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Period:   models.Period30d,
		Payload: models.SnapshotPayload{
			Financial: models.FinancialMetrics{TotalRevenue: decimal.RequireFromString(revenue)},
		},
	}
}

func (s *ValidatorTestSuite) TestCleanRunScoresHighest() {
	s.stubStore([]*models.TenantMetricSnapshot{
		revenueSnapshot("600.00"),
		revenueSnapshot("400.00"),
	}, "1000.00", 2)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 2)
	s.Require().NoError(err)
	s.Equal(2, result.FoundSnapshots)
	s.Equal("0", result.RevenueDelta)
	s.Empty(result.Issues)
	s.Equal(float64(qualityClean), result.QualityScore)
}

func (s *ValidatorTestSuite) TestSmallRevenueDriftIsReported() {
	// 0.50 of 1000 is 0.05%: above tolerance, under the small-drift band.
	s.stubStore([]*models.TenantMetricSnapshot{
		revenueSnapshot("999.50"),
	}, "1000.00", 1)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 1)
	s.Require().NoError(err)
	s.Equal("0.5", result.RevenueDelta)
	s.Require().Len(result.Issues, 1)
	s.Contains(result.Issues[0], "revenue does not reconcile")
	s.Equal(float64(qualitySmallDrift), result.QualityScore)
}

func (s *ValidatorTestSuite) TestLargeRevenueDriftScoresLower() {
	s.stubStore([]*models.TenantMetricSnapshot{
		revenueSnapshot("500.00"),
	}, "1000.00", 1)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 1)
	s.Require().NoError(err)
	s.Equal(float64(qualityLargeDrift), result.QualityScore)
}

func (s *ValidatorTestSuite) TestMissingFewSnapshots() {
	snapshots := make([]*models.TenantMetricSnapshot, 9)
	total := decimal.Zero
	for i := range snapshots {
		snapshots[i] = revenueSnapshot("100.00")
		total = total.Add(decimal.RequireFromString("100.00"))
	}
	s.stubStore(snapshots, total.String(), 9)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 10)
	s.Require().NoError(err)
	s.Equal(10, result.ExpectedSnapshots)
	s.Equal(9, result.FoundSnapshots)
	s.Require().NotEmpty(result.Issues)
	s.Contains(result.Issues[0], "snapshot count mismatch")
	s.Equal(float64(qualityMissingFew), result.QualityScore)
}

func (s *ValidatorTestSuite) TestMissingManySnapshots() {
	s.stubStore([]*models.TenantMetricSnapshot{
		revenueSnapshot("100.00"),
	}, "100.00", 1)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 4)
	s.Require().NoError(err)
	s.Equal(float64(qualityMissingMany), result.QualityScore)
}

func (s *ValidatorTestSuite) TestIncludedCountMismatchIsAnIssue() {
	s.stubStore([]*models.TenantMetricSnapshot{
		revenueSnapshot("100.00"),
		revenueSnapshot("200.00"),
	}, "300.00", 5)

	result, err := s.validator.ValidatePeriod(context.Background(), models.Period30d, s.calculationDate, 2)
	s.Require().NoError(err)
	s.Require().Len(result.Issues, 1)
	s.Contains(result.Issues[0], "platform snapshot includes 5 tenants")
	// Counts and revenue still line up, so the score stays in the clean band.
	s.Equal(float64(qualityClean), result.QualityScore)
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
