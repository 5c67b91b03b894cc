// Package service orchestrates one audit run: snapshot load, detection,
// report caching, and best-effort findings publication.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soc-audit/internal/detect"
	"soc-audit/internal/engine"
	"soc-audit/internal/models"
)

// ErrRunInProgress is returned when another audit run holds the run lock.
var ErrRunInProgress = errors.New("an audit run is already in progress")

// ReportCache is the slice of the redis repository the service needs.
type ReportCache interface {
	Store(ctx context.Context, report *models.Report) error
	Latest(ctx context.Context) (*models.Report, error)
	AcquireRunLock(ctx context.Context, runID string) (bool, error)
	ReleaseRunLock(ctx context.Context)
}

// FindingPublisher pushes findings downstream. Satisfied by the Kafka
// producer; nil disables publication.
type FindingPublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// AuditService runs audits end to end.
type AuditService struct {
	loader     *engine.Loader
	aggregator *engine.Aggregator
	detectCfg  detect.Config
	cache      ReportCache
	publisher  FindingPublisher
	topic      string
	logger     *zap.Logger
}

func NewAuditService(
	loader *engine.Loader,
	aggregator *engine.Aggregator,
	detectCfg detect.Config,
	cache ReportCache,
	publisher FindingPublisher,
	topic string,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		loader:     loader,
		aggregator: aggregator,
		detectCfg:  detectCfg,
		cache:      cache,
		publisher:  publisher,
		topic:      topic,
		logger:     logger,
	}
}

// RunAudit executes one audit over the given event window. Only total
// inability to load any snapshot data fails the run; every other failure
// degrades to a partial report with explicit status markers.
func (s *AuditService) RunAudit(ctx context.Context, window models.TimeRange) (*models.Report, error) {
	locked := false
	if s.cache != nil {
		acquired, err := s.cache.AcquireRunLock(ctx, uuid.New().String())
		switch {
		case err != nil:
			// A cache outage must not block auditing.
			s.logger.Warn("run lock unavailable, proceeding without it", zap.Error(err))
		case !acquired:
			return nil, ErrRunInProgress
		default:
			locked = true
		}
	}
	if locked {
		defer s.cache.ReleaseRunLock(ctx)
	}

	snap, err := s.loader.Load(ctx, window)
	if err != nil {
		return nil, err
	}

	report := s.aggregator.Run(ctx, snap, s.detectCfg)

	s.logger.Info("audit run completed",
		zap.String("run_id", report.RunID),
		zap.Int("findings", report.Summary.TotalFindings),
		zap.Bool("partial", report.Partial),
	)

	s.publishFindings(ctx, report)

	if s.cache != nil {
		if err := s.cache.Store(ctx, report); err != nil {
			s.logger.Warn("failed to cache report", zap.Error(err))
		}
	}
	return report, nil
}

// LatestReport returns the most recently cached report.
func (s *AuditService) LatestReport(ctx context.Context) (*models.Report, error) {
	if s.cache == nil {
		return nil, errors.New("report cache not configured")
	}
	return s.cache.Latest(ctx)
}

// publishFindings pushes every finding to the SOC topic, keyed by affected
// entity. Publication is best-effort: failures are logged, never fatal.
func (s *AuditService) publishFindings(ctx context.Context, report *models.Report) {
	if s.publisher == nil {
		return
	}
	published, failed := 0, 0
	for _, f := range report.Findings() {
		value, err := json.Marshal(f)
		if err != nil {
			failed++
			continue
		}
		if err := s.publisher.Publish(ctx, s.topic, []byte(f.EntityID), value); err != nil {
			failed++
			continue
		}
		published++
	}
	if failed > 0 {
		s.logger.Warn("some findings were not published",
			zap.Int("published", published),
			zap.Int("failed", failed),
		)
		return
	}
	if published > 0 {
		s.logger.Debug("findings published", zap.Int("count", published))
	}
}
