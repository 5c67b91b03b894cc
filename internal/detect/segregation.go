package detect

import (
	"context"

	"soc-audit/internal/models"
)

// Segregation flags accesses whose (role, resource category) pair appears in
// the toxic-combination matrix. The lookup is exact-match; pairs absent from
// the matrix never flag, so new policy entries require no code change.
type Segregation struct{}

func (m *Segregation) Name() string { return "segregation_of_duties" }

func (m *Segregation) Type() models.DetectionType { return models.DetectionSegregation }

func (m *Segregation) Requires() []models.Source {
	return []models.Source{models.SourceUsers, models.SourceAccessEvents}
}

func (m *Segregation) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	var findings []models.Finding
	for i, e := range snap.AccessEvents {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}
		u, ok := snap.UserByID(e.UserID)
		if !ok {
			continue
		}
		sevLabel, toxic := cfg.Toxic.Lookup(u.Role, e.ResourceCategory)
		if !toxic {
			continue
		}
		findings = append(findings, models.NewFinding(
			m.Type(), models.ParseSeverity(sevLabel, models.SeverityHigh), "user", e.UserID, e.Timestamp,
			map[string]any{
				"role":              u.Role,
				"department":        u.Department,
				"resource_id":       e.ResourceID,
				"resource_category": e.ResourceCategory,
			},
		))
	}
	return findings, nil
}
