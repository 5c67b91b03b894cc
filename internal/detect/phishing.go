package detect

import (
	"context"

	"soc-audit/internal/models"
)

// Phishing flags users who clicked a link in an email whose risk score is at
// or above the configured threshold. A score exactly at the threshold counts
// as high-risk.
type Phishing struct{}

func (m *Phishing) Name() string { return "phishing_correlation" }

func (m *Phishing) Type() models.DetectionType { return models.DetectionPhishing }

func (m *Phishing) Requires() []models.Source {
	return []models.Source{models.SourceUsers, models.SourceEmails}
}

func (m *Phishing) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	var findings []models.Finding
	for i, e := range snap.Emails {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}
		if !e.Clicked || e.RiskScore < cfg.PhishingRiskThreshold {
			continue
		}
		findings = append(findings, models.NewFinding(
			m.Type(), models.SeverityHigh, "user", e.RecipientUserID, snap.Window.To,
			map[string]any{
				"email_id":   e.EmailID,
				"risk_score": e.RiskScore,
			},
		))
	}
	return findings, nil
}
