package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

func accessAt(userID string, at time.Time) models.AccessEvent {
	return models.AccessEvent{
		UserID:     userID,
		ResourceID: "r-1",
		Timestamp:  at,
	}
}

func TestInsiderThreatBoundaries(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		at   time.Time
		flag bool
	}{
		{"just before opening", day.Add(7*time.Hour + 59*time.Minute), true},
		{"exactly at opening", day.Add(8 * time.Hour), false},
		{"just before closing", day.Add(19*time.Hour + 59*time.Minute), false},
		{"exactly at closing", day.Add(20 * time.Hour), true},
	}

	mod := &InsiderThreat{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := testSnapshot(func(s *models.Snapshot) {
				s.Users = []models.User{{UserID: "u-1", Department: "it", Role: "admin"}}
				s.AccessEvents = []models.AccessEvent{accessAt("u-1", tc.at)}
			})

			findings, err := mod.Detect(context.Background(), snap, testConfig())
			require.NoError(t, err)
			if tc.flag {
				require.Len(t, findings, 1)
				assert.Equal(t, models.DetectionInsiderThreat, findings[0].DetectionType)
				assert.Equal(t, models.SeverityMedium, findings[0].Severity)
				assert.Equal(t, "u-1", findings[0].EntityID)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestInsiderThreatUserWindowOverridesDefault(t *testing.T) {
	// 08:30 is inside the configured default but outside the user's own
	// 9 to 17 window.
	at := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Users = []models.User{{
			UserID: "u-1", Department: "it", Role: "admin",
			WorkdayStart: 9, WorkdayEnd: 17,
		}}
		s.AccessEvents = []models.AccessEvent{accessAt("u-1", at)}
	})

	findings, err := (&InsiderThreat{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 9, findings[0].Evidence["window_start"])
	assert.Equal(t, 17, findings[0].Evidence["window_end"])
}

func TestInsiderThreatHonorsUserTimezone(t *testing.T) {
	// 06:00 UTC is 08:00 in Helsinki, so the access is inside the window
	// for a Helsinki user and outside it for a UTC user.
	at := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Users = []models.User{
			{UserID: "u-hel", Department: "it", Role: "admin", Timezone: "Europe/Helsinki"},
			{UserID: "u-utc", Department: "it", Role: "admin"},
		}
		s.AccessEvents = []models.AccessEvent{accessAt("u-hel", at), accessAt("u-utc", at)}
	})

	findings, err := (&InsiderThreat{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "u-utc", findings[0].EntityID)
}

func TestInsiderThreatUnknownUserUsesDefaults(t *testing.T) {
	at := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AccessEvents = []models.AccessEvent{accessAt("ghost", at)}
	})

	findings, err := (&InsiderThreat{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "ghost", findings[0].EntityID)
}
