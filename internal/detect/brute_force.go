package detect

import (
	"context"
	"sort"
	"time"

	"soc-audit/internal/correlate"
	"soc-audit/internal/models"
)

// BruteForce flags users whose failed logins reach the configured threshold
// inside the sliding window with no intervening success. A successful login
// resets the streak; after a burst is flagged the counter restarts so one
// sustained attack produces one finding per full window of failures.
type BruteForce struct{}

func (m *BruteForce) Name() string { return "brute_force" }

func (m *BruteForce) Type() models.DetectionType { return models.DetectionBruteForce }

func (m *BruteForce) Requires() []models.Source {
	return []models.Source{models.SourceUsers, models.SourceAuthEvents}
}

func (m *BruteForce) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	byUser := snap.AuthEventsByUser()
	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	var findings []models.Finding
	for i, userID := range userIDs {
		if err := checkEvery(ctx, i, 64); err != nil {
			return nil, err
		}
		findings = append(findings, m.scanUser(userID, byUser[userID], cfg)...)
	}
	return findings, nil
}

func (m *BruteForce) scanUser(userID string, events []models.AuthEvent, cfg Config) []models.Finding {
	counter := correlate.NewWindowCounter(cfg.BruteForceWindow)

	var findings []models.Finding
	var firstFailure time.Time
	for _, e := range events {
		if e.Success {
			counter.Reset()
			continue
		}
		if counter.Add(e.Timestamp) < cfg.BruteForceThreshold {
			continue
		}
		firstFailure = counter.First()
		findings = append(findings, models.NewFinding(
			m.Type(), models.SeverityHigh, "user", userID, e.Timestamp,
			map[string]any{
				"failure_count": counter.Count(),
				"window":        cfg.BruteForceWindow.String(),
				"first_failure": firstFailure.UTC().Format(time.RFC3339),
				"source_ip":     e.SourceIP,
			},
		))
		counter.Reset()
	}
	return findings
}
