package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

func login(userID string, at time.Time, lat, lon float64) models.AuthEvent {
	return models.AuthEvent{
		UserID:    userID,
		Timestamp: at,
		Success:   true,
		SourceIP:  "203.0.113.10",
		Latitude:  lat,
		Longitude: lon,
	}
}

func TestImpossibleTravelFlagsExcessiveSpeed(t *testing.T) {
	// London to New York in ten minutes.
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AuthEvents = []models.AuthEvent{
			login("u-1", testBase, 51.5074, -0.1278),
			login("u-1", testBase.Add(10*time.Minute), 40.7128, -74.0060),
		}
	})

	findings, err := (&ImpossibleTravel{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "u-1", findings[0].EntityID)
	assert.InDelta(t, 5570, findings[0].Evidence["distance_km"].(float64), 30)
	assert.Greater(t, findings[0].Evidence["speed_kmh"].(float64), 900.0)
}

func TestImpossibleTravelPlausibleSpeedDoesNotFlag(t *testing.T) {
	// London to Paris in an hour is ordinary air travel.
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AuthEvents = []models.AuthEvent{
			login("u-1", testBase, 51.5074, -0.1278),
			login("u-1", testBase.Add(time.Hour), 48.8566, 2.3522),
		}
	})

	findings, err := (&ImpossibleTravel{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestImpossibleTravelSkipsIdenticalCoordinates(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AuthEvents = []models.AuthEvent{
			login("u-1", testBase, 51.5074, -0.1278),
			login("u-1", testBase.Add(time.Second), 51.5074, -0.1278),
		}
	})

	findings, err := (&ImpossibleTravel{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestImpossibleTravelSkipsZeroElapsed(t *testing.T) {
	// Two distant logins with identical timestamps carry no speed
	// information and must not flag.
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AuthEvents = []models.AuthEvent{
			login("u-1", testBase, 51.5074, -0.1278),
			login("u-1", testBase, 40.7128, -74.0060),
		}
	})

	findings, err := (&ImpossibleTravel{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestImpossibleTravelPairsAreConsecutive(t *testing.T) {
	// London, Paris four hours later, New York eight hours after that:
	// the outer pair is impossible but each consecutive pair is plausible,
	// so nothing flags.
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AuthEvents = []models.AuthEvent{
			login("u-1", testBase, 51.5074, -0.1278),
			login("u-1", testBase.Add(4*time.Hour), 48.8566, 2.3522),
			login("u-1", testBase.Add(12*time.Hour), 40.7128, -74.0060),
		}
	})

	findings, err := (&ImpossibleTravel{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}
