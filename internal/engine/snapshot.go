package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soc-audit/internal/config"
	"soc-audit/internal/models"
)

// StructuredStore is the read interface over the relational store.
type StructuredStore interface {
	FetchUsers(ctx context.Context) ([]models.User, int, error)
	FetchIncidents(ctx context.Context) ([]models.Incident, int, error)
	FetchDevices(ctx context.Context) ([]models.Device, int, error)
	FetchEmails(ctx context.Context) ([]models.Email, int, error)
}

// EventStore is the read interface over the document store. Both fetches are
// bounded by the audit time range. The int result is the number of malformed
// records skipped.
type EventStore interface {
	FetchAccessEvents(ctx context.Context, window models.TimeRange) ([]models.AccessEvent, int, error)
	FetchAuthEvents(ctx context.Context, window models.TimeRange) ([]models.AuthEvent, int, error)
}

// Loader assembles an immutable snapshot from the two stores. Sources are
// fetched concurrently and retried with bounded exponential backoff; a
// source that stays down is recorded on the snapshot instead of failing the
// run, unless every source is down.
type Loader struct {
	structured StructuredStore
	events     EventStore
	retry      config.FetchConfig
	logger     *zap.Logger
}

// NewLoader wires a loader over the two store adapters.
func NewLoader(structured StructuredStore, events EventStore, retry config.FetchConfig, logger *zap.Logger) *Loader {
	return &Loader{structured: structured, events: events, retry: retry, logger: logger}
}

// Load fetches all six sources for the window. Only total inability to
// obtain any data is an error; partial availability yields a snapshot with
// per-source errors.
func (l *Loader) Load(ctx context.Context, window models.TimeRange) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Window:       window,
		SourceErrors: make(map[models.Source]error),
		Stats: models.SnapshotStats{
			Fetched:   make(map[models.Source]int),
			Malformed: make(map[models.Source]int),
		},
	}

	type result struct {
		source    models.Source
		fetched   int
		malformed int
		err       error
	}
	results := make([]result, len(models.AllSources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range models.AllSources {
		i, src := i, src
		g.Go(func() error {
			var fetched, malformed int
			err := l.fetchWithRetry(gctx, src, func(ctx context.Context) error {
				var ferr error
				switch src {
				case models.SourceUsers:
					snap.Users, malformed, ferr = l.structured.FetchUsers(ctx)
					fetched = len(snap.Users)
				case models.SourceIncidents:
					snap.Incidents, malformed, ferr = l.structured.FetchIncidents(ctx)
					fetched = len(snap.Incidents)
				case models.SourceDevices:
					snap.Devices, malformed, ferr = l.structured.FetchDevices(ctx)
					fetched = len(snap.Devices)
				case models.SourceEmails:
					snap.Emails, malformed, ferr = l.structured.FetchEmails(ctx)
					fetched = len(snap.Emails)
				case models.SourceAccessEvents:
					snap.AccessEvents, malformed, ferr = l.events.FetchAccessEvents(ctx, window)
					fetched = len(snap.AccessEvents)
				case models.SourceAuthEvents:
					snap.AuthEvents, malformed, ferr = l.events.FetchAuthEvents(ctx, window)
					fetched = len(snap.AuthEvents)
				}
				return ferr
			})
			results[i] = result{source: src, fetched: fetched, malformed: malformed, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			snap.SourceErrors[r.source] = &DataSourceUnavailableError{Source: r.source, Err: r.err}
			l.logger.Error("source fetch failed after retries",
				zap.String("source", string(r.source)),
				zap.Error(r.err),
			)
			continue
		}
		snap.Stats.Fetched[r.source] = r.fetched
		snap.Stats.Malformed[r.source] = r.malformed
		if r.malformed > 0 {
			l.logger.Warn("skipped malformed records",
				zap.String("source", string(r.source)),
				zap.Int("skipped", r.malformed),
			)
		}
	}
	if failures == len(models.AllSources) {
		return nil, ErrNoSnapshotData
	}

	snap.Finalize()
	return snap, nil
}

func (l *Loader) fetchWithRetry(ctx context.Context, src models.Source, fn func(context.Context) error) error {
	backoff := l.retry.BackoffBase
	var lastErr error
	for attempt := 1; attempt <= l.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt == l.retry.MaxAttempts {
			break
		}
		l.logger.Warn("source fetch failed, retrying",
			zap.String("source", string(src)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if l.retry.BackoffMax > 0 && backoff > l.retry.BackoffMax {
			backoff = l.retry.BackoffMax
		}
	}
	return lastErr
}
