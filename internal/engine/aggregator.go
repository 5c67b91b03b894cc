package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soc-audit/internal/detect"
	"soc-audit/internal/models"
)

// Aggregator runs the detection modules against a snapshot and merges their
// output into one ordered report. Modules are independent: one failing,
// panicking, or timing out never affects the others, and completed results
// survive a run-level timeout.
type Aggregator struct {
	modules []detect.Module
	logger  *zap.Logger
}

// NewAggregator builds an aggregator over the given modules, defaulting to
// the full module set.
func NewAggregator(logger *zap.Logger, modules ...detect.Module) *Aggregator {
	if len(modules) == 0 {
		modules = detect.All()
	}
	return &Aggregator{modules: modules, logger: logger}
}

type moduleResult struct {
	status   models.ModuleStatus
	findings []models.Finding
}

// Run executes every module concurrently under the configured run timeout
// and returns the consolidated report. The report is deterministic for a
// given snapshot and configuration: groups are ordered by detection type and
// findings within a group by severity, timestamp, entity, and dedup key.
func (a *Aggregator) Run(ctx context.Context, snap *models.Snapshot, cfg detect.Config) *models.Report {
	runCtx := ctx
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	results := make([]moduleResult, len(a.modules))
	g := &errgroup.Group{}
	for i, mod := range a.modules {
		i, mod := i, mod

		if src, unavailable := missingSource(snap, mod); unavailable {
			results[i] = moduleResult{status: models.ModuleStatus{
				Module:        mod.Name(),
				DetectionType: mod.Type(),
				State:         models.ModuleFailed,
				Error:         snap.SourceErrors[src].Error(),
			}}
			a.logger.Warn("module skipped: source unavailable",
				zap.String("module", mod.Name()),
				zap.String("source", string(src)),
			)
			continue
		}

		g.Go(func() error {
			results[i] = a.runModule(runCtx, mod, snap, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return a.buildReport(snap, results)
}

func (a *Aggregator) runModule(ctx context.Context, mod detect.Module, snap *models.Snapshot, cfg detect.Config) (res moduleResult) {
	start := time.Now()
	res.status = models.ModuleStatus{
		Module:        mod.Name(),
		DetectionType: mod.Type(),
		State:         models.ModuleSuccess,
	}

	defer func() {
		res.status.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			err := &ModuleExecutionError{Module: mod.Name(), Err: fmt.Errorf("panic: %v", r)}
			res.status.State = models.ModuleFailed
			res.status.Error = err.Error()
			res.findings = nil
			a.logger.Error("module panicked", zap.String("module", mod.Name()), zap.Any("panic", r))
		}
	}()

	findings, err := mod.Detect(ctx, snap, cfg)
	switch {
	case err == nil:
		res.findings = findings
		res.status.FindingCount = len(findings)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		res.status.State = models.ModuleTimeout
		res.status.Error = "run timeout exceeded"
		a.logger.Warn("module timed out", zap.String("module", mod.Name()))
	default:
		modErr := &ModuleExecutionError{Module: mod.Name(), Err: err}
		res.status.State = models.ModuleFailed
		res.status.Error = modErr.Error()
		a.logger.Error("module failed", zap.String("module", mod.Name()), zap.Error(err))
	}
	return res
}

func (a *Aggregator) buildReport(snap *models.Snapshot, results []moduleResult) *models.Report {
	report := &models.Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Window:      snap.Window,
		Summary: models.Summary{
			BySeverity: make(map[models.Severity]int),
			ByType:     make(map[models.DetectionType]int),
			Fetched:    snap.Stats.Fetched,
			Malformed:  snap.Stats.Malformed,
		},
		Partial: len(snap.SourceErrors) > 0,
	}

	grouped := make(map[models.DetectionType][]models.Finding)
	for _, r := range results {
		report.Modules = append(report.Modules, r.status)
		if r.status.State != models.ModuleSuccess {
			report.Partial = true
		}
		if len(r.findings) > 0 {
			grouped[r.status.DetectionType] = append(grouped[r.status.DetectionType], r.findings...)
		}
	}
	sort.Slice(report.Modules, func(i, j int) bool {
		return report.Modules[i].Module < report.Modules[j].Module
	})

	types := make([]models.DetectionType, 0, len(grouped))
	for t := range grouped {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		findings := grouped[t]
		sort.SliceStable(findings, func(i, j int) bool {
			if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
				return findings[i].Severity.Rank() > findings[j].Severity.Rank()
			}
			if !findings[i].Timestamp.Equal(findings[j].Timestamp) {
				return findings[i].Timestamp.Before(findings[j].Timestamp)
			}
			if findings[i].EntityID != findings[j].EntityID {
				return findings[i].EntityID < findings[j].EntityID
			}
			return findings[i].DedupKey < findings[j].DedupKey
		})
		report.Groups = append(report.Groups, models.FindingGroup{DetectionType: t, Findings: findings})

		report.Summary.TotalFindings += len(findings)
		report.Summary.ByType[t] = len(findings)
		for _, f := range findings {
			report.Summary.BySeverity[f.Severity]++
		}
	}
	return report
}

func missingSource(snap *models.Snapshot, mod detect.Module) (models.Source, bool) {
	for _, src := range mod.Requires() {
		if snap.SourceFailed(src) {
			return src, true
		}
	}
	return "", false
}
