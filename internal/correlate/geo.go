package correlate

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// ImpliedSpeedKmh returns the travel speed implied by covering distanceKm in
// elapsed, and false when elapsed is not positive (the pair carries no speed
// information and must not be flagged).
func ImpliedSpeedKmh(distanceKm float64, elapsed time.Duration) (float64, bool) {
	if elapsed <= 0 {
		return 0, false
	}
	return distanceKm / elapsed.Hours(), true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
