package detect

import (
	"context"
	"math"
	"sort"

	"soc-audit/internal/correlate"
	"soc-audit/internal/models"
)

// ImpossibleTravel flags consecutive logins by the same user whose implied
// travel speed exceeds the configured limit. Pairs with non-positive elapsed
// time or identical coordinates carry no travel information and are skipped
// rather than flagged.
type ImpossibleTravel struct{}

func (m *ImpossibleTravel) Name() string { return "impossible_travel" }

func (m *ImpossibleTravel) Type() models.DetectionType { return models.DetectionImpossibleTravel }

func (m *ImpossibleTravel) Requires() []models.Source {
	return []models.Source{models.SourceUsers, models.SourceAuthEvents}
}

func (m *ImpossibleTravel) Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error) {
	byUser := snap.AuthEventsByUser()
	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	var findings []models.Finding
	for i, userID := range userIDs {
		if err := checkEvery(ctx, i, 64); err != nil {
			return nil, err
		}

		events := byUser[userID]
		for j := 1; j < len(events); j++ {
			prev, cur := events[j-1], events[j]
			if prev.Latitude == cur.Latitude && prev.Longitude == cur.Longitude {
				continue
			}
			distance := correlate.HaversineKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
			speed, ok := correlate.ImpliedSpeedKmh(distance, cur.Timestamp.Sub(prev.Timestamp))
			if !ok || speed <= cfg.ImpossibleTravelSpeedKmh {
				continue
			}
			findings = append(findings, models.NewFinding(
				m.Type(), models.SeverityHigh, "user", userID, cur.Timestamp,
				map[string]any{
					"distance_km":  round1(distance),
					"elapsed":      cur.Timestamp.Sub(prev.Timestamp).String(),
					"speed_kmh":    round1(speed),
					"previous_ip":  prev.SourceIP,
					"current_ip":   cur.SourceIP,
					"previous_geo": geoPair(prev.Latitude, prev.Longitude),
					"current_geo":  geoPair(cur.Latitude, cur.Longitude),
					"speed_limit":  cfg.ImpossibleTravelSpeedKmh,
				},
			))
		}
	}
	return findings, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func geoPair(lat, lon float64) [2]float64 {
	return [2]float64{lat, lon}
}
