package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TTLForPeriod returns the cache lifetime for a period's platform view.
// Short windows move fast and go stale fast; long windows barely change
// between runs.
func TTLForPeriod(period models.Period) time.Duration {
	switch period {
	case models.Period7d:
		return 5 * time.Minute
	case models.Period30d:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

const reportTTL = 30 * time.Minute

type CacheService interface {
	// Platform snapshot caching
	GetPlatformSnapshot(ctx context.Context, period models.Period) (*models.PlatformMetricSnapshot, error)
	SetPlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error

	// Tenant snapshot caching
	GetTenantSnapshot(ctx context.Context, tenantID uuid.UUID, period models.Period) (*models.TenantMetricSnapshot, error)
	SetTenantSnapshot(ctx context.Context, snapshot *models.TenantMetricSnapshot) error

	// Batch report caching
	GetLatestReport(ctx context.Context) (*models.BatchReport, error)
	SetLatestReport(ctx context.Context, report *models.BatchReport) error

	// Cache invalidation
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
	InvalidateAll(ctx context.Context) error

	// Connection health, for the health endpoints
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCacheService(addr, password string, db int, logger *zap.Logger) CacheService {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(err))
	}
	return &redisCacheService{client: client, logger: logger}
}

func (r *redisCacheService) GetPlatformSnapshot(ctx context.Context, period models.Period) (*models.PlatformMetricSnapshot, error) {
	key := fmt.Sprintf("zapbook:platform:%s", period)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var snapshot models.PlatformMetricSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *redisCacheService) SetPlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error {
	key := fmt.Sprintf("zapbook:platform:%s", snapshot.Period)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, TTLForPeriod(snapshot.Period)).Err()
}

func (r *redisCacheService) GetTenantSnapshot(ctx context.Context, tenantID uuid.UUID, period models.Period) (*models.TenantMetricSnapshot, error) {
	key := fmt.Sprintf("zapbook:tenant:%s:%s", tenantID.String(), period)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var snapshot models.TenantMetricSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *redisCacheService) SetTenantSnapshot(ctx context.Context, snapshot *models.TenantMetricSnapshot) error {
	key := fmt.Sprintf("zapbook:tenant:%s:%s", snapshot.TenantID.String(), snapshot.Period)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, TTLForPeriod(snapshot.Period)).Err()
}

func (r *redisCacheService) GetLatestReport(ctx context.Context) (*models.BatchReport, error) {
	data, err := r.client.Get(ctx, "zapbook:report:latest").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var report models.BatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *redisCacheService) SetLatestReport(ctx context.Context, report *models.BatchReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "zapbook:report:latest", data, reportTTL).Err()
}

func (r *redisCacheService) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("zapbook:tenant:%s:*", tenantID.String())
	return r.deleteByPattern(ctx, pattern)
}

func (r *redisCacheService) InvalidateAll(ctx context.Context) error {
	return r.deleteByPattern(ctx, "zapbook:*")
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) deleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Sink adapts the cache to the batch pipeline: finished runs land in the
// cache so the read endpoints serve them without hitting Postgres.
type Sink struct {
	cache  CacheService
	logger *zap.Logger
}

func NewSink(cache CacheService, logger *zap.Logger) *Sink {
	return &Sink{cache: cache, logger: logger}
}

func (s *Sink) StoreBatchReport(ctx context.Context, report *models.BatchReport) error {
	return s.cache.SetLatestReport(ctx, report)
}

func (s *Sink) StorePlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error {
	return s.cache.SetPlatformSnapshot(ctx, snapshot)
}
