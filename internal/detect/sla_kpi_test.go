package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

func incident(id, threatType string, opened time.Time, openFor time.Duration) models.Incident {
	closed := opened.Add(openFor)
	return models.Incident{IncidentID: id, ThreatType: threatType, OpenedAt: opened, ClosedAt: &closed}
}

func TestSLAKPIMeanPerThreatType(t *testing.T) {
	opened := testBase.Add(-48 * time.Hour)
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Incidents = []models.Incident{
			incident("i-1", "malware", opened, 2*time.Hour),
			incident("i-2", "malware", opened.Add(time.Hour), 4*time.Hour),
			incident("i-3", "malware", opened.Add(2*time.Hour), 6*time.Hour),
			{IncidentID: "i-4", ThreatType: "malware", OpenedAt: opened.Add(3 * time.Hour)},
		}
	})

	findings, err := (&SLAKPI{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, models.SeverityInfo, f.Severity)
	assert.Equal(t, "malware", f.EntityID)
	assert.Equal(t, "4h0m0s", f.Evidence["mean_response"])
	assert.Equal(t, 3, f.Evidence["closed_count"])
	assert.Equal(t, 1, f.Evidence["pending_count"])
}

func TestSLAKPIAllPendingOmitsMean(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Incidents = []models.Incident{
			{IncidentID: "i-1", ThreatType: "phishing", OpenedAt: testBase.Add(-time.Hour)},
		}
	})

	findings, err := (&SLAKPI{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.NotContains(t, findings[0].Evidence, "mean_response")
	assert.Equal(t, 0, findings[0].Evidence["closed_count"])
	assert.Equal(t, 1, findings[0].Evidence["pending_count"])
}

func TestSLAKPIGroupsAreOrderedByThreatType(t *testing.T) {
	opened := testBase.Add(-24 * time.Hour)
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Incidents = []models.Incident{
			incident("i-1", "ransomware", opened, time.Hour),
			incident("i-2", "ddos", opened, time.Hour),
			incident("i-3", "malware", opened, time.Hour),
		}
	})

	findings, err := (&SLAKPI{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, "ddos", findings[0].EntityID)
	assert.Equal(t, "malware", findings[1].EntityID)
	assert.Equal(t, "ransomware", findings[2].EntityID)
}
