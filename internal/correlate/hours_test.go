package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoursWindowBoundaries(t *testing.T) {
	w := HoursWindow{Start: 8, End: 20}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just before opening", time.Date(2026, 3, 10, 7, 59, 0, 0, time.UTC), false},
		{"exactly at opening", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), true},
		{"mid day", time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC), true},
		{"just before closing", time.Date(2026, 3, 10, 19, 59, 59, 0, time.UTC), true},
		{"exactly at closing", time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), false},
		{"middle of the night", time.Date(2026, 3, 10, 2, 15, 0, 0, time.UTC), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Contains(tc.at, ""))
		})
	}
}

func TestHoursWindowTimezone(t *testing.T) {
	w := HoursWindow{Start: 8, End: 20}

	// 06:00 UTC is 08:00 in Helsinki (UTC+2 in winter).
	at := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	assert.False(t, w.Contains(at, "UTC"))
	assert.True(t, w.Contains(at, "Europe/Helsinki"))
}

func TestHoursWindowUnknownTimezoneFallsBackToUTC(t *testing.T) {
	w := HoursWindow{Start: 8, End: 20}
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.True(t, w.Contains(at, "Not/AZone"))
}
