package handlers

import (
	"errors"
	"net/http"
	"time"

	"zapbook/internal/batch"
	"zapbook/internal/caching"
	"zapbook/internal/jobs"
	"zapbook/internal/models"
	"zapbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MetricsHandlers exposes the batch engine over HTTP: run triggers for
// operators and read endpoints for dashboards.
type MetricsHandlers struct {
	orchestrator *batch.Orchestrator
	snapshotRepo repositories.TenantSnapshotRepository
	platformRepo repositories.PlatformSnapshotRepository
	cache        caching.CacheService
	asynqClient  *asynq.Client
	logger       *zap.Logger
}

func NewMetricsHandlers(
	orchestrator *batch.Orchestrator,
	snapshotRepo repositories.TenantSnapshotRepository,
	platformRepo repositories.PlatformSnapshotRepository,
	cache caching.CacheService,
	asynqClient *asynq.Client,
	logger *zap.Logger,
) *MetricsHandlers {
	return &MetricsHandlers{
		orchestrator: orchestrator,
		snapshotRepo: snapshotRepo,
		platformRepo: platformRepo,
		cache:        cache,
		asynqClient:  asynqClient,
		logger:       logger,
	}
}

func (h *MetricsHandlers) RegisterRoutes(g *echo.Group) {
	g.POST("/metrics/run", h.RunBatch)
	g.POST("/metrics/recompute", h.Recompute)
	g.GET("/metrics/report/latest", h.LatestReport)
	g.GET("/metrics/platform/:period", h.PlatformSnapshot)
	g.GET("/metrics/tenants/:id", h.TenantSnapshot)
}

// RunBatch triggers a synchronous batch run. The body may carry a
// calculation_date (YYYY-MM-DD); it defaults to today.
func (h *MetricsHandlers) RunBatch(c echo.Context) error {
	var req struct {
		CalculationDate string `json:"calculation_date"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	calculationDate := time.Now().UTC()
	if req.CalculationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.CalculationDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "calculation_date must be YYYY-MM-DD")
		}
		calculationDate = parsed
	}

	report, err := h.orchestrator.RunBatch(c.Request().Context(), calculationDate)
	if err != nil {
		h.logger.Error("batch run failed to start", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "batch run failed to start")
	}
	return c.JSON(http.StatusOK, report)
}

// Recompute queues a single-cell recompute task.
func (h *MetricsHandlers) Recompute(c echo.Context) error {
	var req struct {
		TenantID        string `json:"tenant_id"`
		Period          string `json:"period"`
		CalculationDate string `json:"calculation_date"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_id must be a UUID")
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := jobs.NewRecomputeTenantTask(tenantID, period, req.CalculationDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build task")
	}
	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		h.logger.Error("failed to enqueue recompute task", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to enqueue task")
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"task_id": info.ID,
		"queue":   info.Queue,
	})
}

// LatestReport serves the most recent batch report from the cache.
func (h *MetricsHandlers) LatestReport(c echo.Context) error {
	report, err := h.cache.GetLatestReport(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to read latest report", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read latest report")
	}
	if report == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no batch report available")
	}
	return c.JSON(http.StatusOK, report)
}

// PlatformSnapshot serves the latest platform snapshot for the period,
// cache first, store on miss.
func (h *MetricsHandlers) PlatformSnapshot(c echo.Context) error {
	period, err := models.ParsePeriod(c.Param("period"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	snapshot, err := h.cache.GetPlatformSnapshot(ctx, period)
	if err != nil {
		h.logger.Warn("platform snapshot cache read failed", zap.Error(err))
	}
	if snapshot == nil {
		snapshot, err = h.platformRepo.GetLatest(ctx, period, models.MetricKindComprehensive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return echo.NewHTTPError(http.StatusNotFound, "no platform snapshot for period")
			}
			h.logger.Error("failed to load platform snapshot", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load platform snapshot")
		}
		if cacheErr := h.cache.SetPlatformSnapshot(ctx, snapshot); cacheErr != nil {
			h.logger.Warn("platform snapshot cache write failed", zap.Error(cacheErr))
		}
	}
	return c.JSON(http.StatusOK, snapshot)
}

// TenantSnapshot serves a tenant's latest snapshot for the period given in
// the query (default 30d).
func (h *MetricsHandlers) TenantSnapshot(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant id must be a UUID")
	}
	periodParam := c.QueryParam("period")
	if periodParam == "" {
		periodParam = string(models.Period30d)
	}
	period, err := models.ParsePeriod(periodParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	snapshot, err := h.cache.GetTenantSnapshot(ctx, tenantID, period)
	if err != nil {
		h.logger.Warn("tenant snapshot cache read failed", zap.Error(err))
	}
	if snapshot == nil {
		snapshot, err = h.snapshotRepo.Get(ctx, tenantID, period, models.MetricKindComprehensive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return echo.NewHTTPError(http.StatusNotFound, "no snapshot for tenant and period")
			}
			h.logger.Error("failed to load tenant snapshot",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load tenant snapshot")
		}
		if cacheErr := h.cache.SetTenantSnapshot(ctx, snapshot); cacheErr != nil {
			h.logger.Warn("tenant snapshot cache write failed", zap.Error(cacheErr))
		}
	}
	return c.JSON(http.StatusOK, snapshot)
}
