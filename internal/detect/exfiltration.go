package detect

import (
	"context"

	"soc-audit/internal/models"
)

// Exfiltration flags transfers strictly larger than the configured size over
// a protocol in the insecure set. A transfer of exactly the threshold does
// not flag, and large transfers over encrypted protocols never flag.
type Exfiltration struct{}

func (m *Exfiltration) Name() string { return "exfiltration" }

func (m *Exfiltration) Type() models.DetectionType { return models.DetectionExfiltration }

func (m *Exfiltration) Requires() []models.Source {
	return []models.Source{models.SourceAccessEvents}
}

func (m *Exfiltration) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	var findings []models.Finding
	for i, e := range snap.AccessEvents {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}
		if e.BytesTransferred <= cfg.ExfilSizeThresholdBytes {
			continue
		}
		if !cfg.InsecureProtocols.Contains(e.Protocol) {
			continue
		}
		evidence := map[string]any{
			"resource_id":       e.ResourceID,
			"protocol":          e.Protocol,
			"bytes_transferred": e.BytesTransferred,
		}
		if e.DestinationIP != "" {
			evidence["destination_ip"] = e.DestinationIP
		}
		findings = append(findings, models.NewFinding(
			m.Type(), models.SeverityCritical, "user", e.UserID, e.Timestamp, evidence,
		))
	}
	return findings, nil
}
