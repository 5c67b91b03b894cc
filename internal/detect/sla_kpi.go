package detect

import (
	"context"
	"sort"
	"time"

	"soc-audit/internal/models"
)

// SLAKPI reports the mean incident response duration per threat type. Open
// incidents are excluded from the mean and counted as pending instead.
type SLAKPI struct{}

func (m *SLAKPI) Name() string { return "sla_kpi" }

func (m *SLAKPI) Type() models.DetectionType { return models.DetectionSLAKPI }

func (m *SLAKPI) Requires() []models.Source {
	return []models.Source{models.SourceIncidents}
}

type slaBucket struct {
	total      time.Duration
	closed     int
	pending    int
	lastOpened time.Time
}

func (m *SLAKPI) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	buckets := make(map[string]*slaBucket)
	for i, inc := range snap.Incidents {
		if err := checkEvery(ctx, i, 1024); err != nil {
			return nil, err
		}
		b := buckets[inc.ThreatType]
		if b == nil {
			b = &slaBucket{}
			buckets[inc.ThreatType] = b
		}
		if d, done := inc.Duration(); done {
			b.total += d
			b.closed++
		} else {
			b.pending++
		}
		if inc.OpenedAt.After(b.lastOpened) {
			b.lastOpened = inc.OpenedAt
		}
	}

	types := make([]string, 0, len(buckets))
	for t := range buckets {
		types = append(types, t)
	}
	sort.Strings(types)

	findings := make([]models.Finding, 0, len(types))
	for _, t := range types {
		b := buckets[t]
		evidence := map[string]any{
			"closed_count":  b.closed,
			"pending_count": b.pending,
		}
		if b.closed > 0 {
			evidence["mean_response"] = (b.total / time.Duration(b.closed)).String()
		}
		findings = append(findings, models.NewFinding(
			m.Type(), models.SeverityInfo, "threat_type", t, b.lastOpened, evidence,
		))
	}
	return findings, nil
}
