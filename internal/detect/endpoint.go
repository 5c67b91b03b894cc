package detect

import (
	"context"
	"strings"

	"soc-audit/internal/models"
)

// EndpointVulnerability flags devices that are end-of-life or patched below
// the configured minimum. Conditions can co-occur; the finding records every
// condition that triggered.
type EndpointVulnerability struct{}

func (m *EndpointVulnerability) Name() string { return "endpoint_vulnerability" }

func (m *EndpointVulnerability) Type() models.DetectionType { return models.DetectionEndpointVuln }

func (m *EndpointVulnerability) Requires() []models.Source {
	return []models.Source{models.SourceDevices}
}

func (m *EndpointVulnerability) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	var findings []models.Finding
	for i, d := range snap.Devices {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}

		var conditions []string
		if d.EOL {
			conditions = append(conditions, "eol_flag")
		}
		if cfg.EOLOSVersions.Contains(osLabel(d)) || cfg.EOLOSVersions.Contains(d.OSVersion) {
			conditions = append(conditions, "eol_os_version")
		}
		if d.PatchLevel < cfg.MinimumPatchLevel {
			conditions = append(conditions, "patch_level_below_minimum")
		}
		if len(conditions) == 0 {
			continue
		}

		severity := models.SeverityMedium
		if conditions[0] == "eol_flag" || conditions[0] == "eol_os_version" {
			severity = models.SeverityHigh
		}

		evidence := map[string]any{
			"os_name":     d.OSName,
			"os_version":  d.OSVersion,
			"patch_level": d.PatchLevel,
			"conditions":  strings.Join(conditions, ","),
		}
		if d.OwnerUserID != "" {
			evidence["owner_user_id"] = d.OwnerUserID
		}
		findings = append(findings, models.NewFinding(
			m.Type(), severity, "device", d.DeviceID, snap.Window.To, evidence,
		))
	}
	return findings, nil
}

func osLabel(d models.Device) string {
	if d.OSName == "" {
		return d.OSVersion
	}
	return d.OSName + " " + d.OSVersion
}
