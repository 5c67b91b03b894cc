package detect

import (
	"context"

	"soc-audit/internal/correlate"
	"soc-audit/internal/models"
)

// InsiderThreat flags resource access outside business hours. The window is
// inclusive-exclusive: an access at the opening hour is inside, an access at
// the closing hour is outside. A user's own working-hours window, when set,
// overrides the configured default.
type InsiderThreat struct{}

func (m *InsiderThreat) Name() string { return "insider_threat" }

func (m *InsiderThreat) Type() models.DetectionType { return models.DetectionInsiderThreat }

func (m *InsiderThreat) Requires() []models.Source {
	return []models.Source{models.SourceUsers, models.SourceAccessEvents}
}

func (m *InsiderThreat) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	var findings []models.Finding
	for i, e := range snap.AccessEvents {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}

		window := cfg.BusinessHours
		timezone := ""
		if u, ok := snap.UserByID(e.UserID); ok {
			timezone = u.Timezone
			if u.WorkdayStart != 0 || u.WorkdayEnd != 0 {
				window = correlate.HoursWindow{Start: u.WorkdayStart, End: u.WorkdayEnd}
			}
		}
		if window.Contains(e.Timestamp, timezone) {
			continue
		}

		findings = append(findings, models.NewFinding(
			m.Type(), models.SeverityMedium, "user", e.UserID, e.Timestamp,
			map[string]any{
				"resource_id":       e.ResourceID,
				"resource_category": e.ResourceCategory,
				"window_start":      window.Start,
				"window_end":        window.End,
			},
		))
	}
	return findings, nil
}
