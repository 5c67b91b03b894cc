package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistances(t *testing.T) {
	// London to Paris, roughly 344 km.
	d := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344, d, 5)

	// London to New York, roughly 5570 km.
	d = HaversineKm(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, 5570, d, 30)
}

func TestHaversineZeroDistance(t *testing.T) {
	assert.Zero(t, HaversineKm(48.8566, 2.3522, 48.8566, 2.3522))
}

func TestImpliedSpeed(t *testing.T) {
	speed, ok := ImpliedSpeedKmh(500, time.Hour)
	assert.True(t, ok)
	assert.InDelta(t, 500, speed, 0.01)

	speed, ok = ImpliedSpeedKmh(100, 30*time.Minute)
	assert.True(t, ok)
	assert.InDelta(t, 200, speed, 0.01)
}

func TestImpliedSpeedNonPositiveElapsed(t *testing.T) {
	_, ok := ImpliedSpeedKmh(500, 0)
	assert.False(t, ok)

	_, ok = ImpliedSpeedKmh(500, -time.Minute)
	assert.False(t, ok)
}
