// Package redis caches the latest audit report and serializes concurrent
// run triggers with a short-lived lock.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"soc-audit/internal/client"
	"soc-audit/internal/models"
)

const (
	latestReportKey = "audit:report:latest"
	runLockKey      = "audit:run:lock"
)

// ErrNoCachedReport is returned when no report has been cached yet.
var ErrNoCachedReport = errors.New("no cached report")

// ReportCache stores the most recent report and the run lock.
type ReportCache struct {
	client    *client.RedisClient
	reportTTL time.Duration
	lockTTL   time.Duration
	logger    *zap.Logger
}

func NewReportCache(rc *client.RedisClient, reportTTL, lockTTL time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{
		client:    rc,
		reportTTL: reportTTL,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// Store caches the report as the latest one.
func (c *ReportCache) Store(ctx context.Context, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, latestReportKey, data, c.reportTTL); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	c.logger.Debug("report cached",
		zap.String("run_id", report.RunID),
		zap.Int("findings", report.Summary.TotalFindings),
	)
	return nil
}

// Latest returns the most recently cached report.
func (c *ReportCache) Latest(ctx context.Context) (*models.Report, error) {
	data, err := c.client.Client.Get(ctx, latestReportKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, ErrNoCachedReport
		}
		return nil, fmt.Errorf("read cached report: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal cached report: %w", err)
	}
	return &report, nil
}

// AcquireRunLock takes the run lock; false means another run holds it. The
// TTL guards against a crashed run never releasing.
func (c *ReportCache) AcquireRunLock(ctx context.Context, runID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, runLockKey, runID, c.lockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}

// ReleaseRunLock drops the run lock.
func (c *ReportCache) ReleaseRunLock(ctx context.Context) {
	if err := c.client.Del(ctx, runLockKey); err != nil {
		c.logger.Warn("failed to release run lock", zap.Error(err))
	}
}
