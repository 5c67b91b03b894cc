package detect

import (
	"time"

	"soc-audit/internal/correlate"
	"soc-audit/internal/models"
)

var testBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	matrix := correlate.NewToxicMatrix()
	matrix.Add("it", "finance", "high")
	matrix.Add("it", "hr", "high")
	matrix.Add("sales", "hr", "medium")

	return Config{
		BusinessHours:            correlate.HoursWindow{Start: 8, End: 20},
		BruteForceThreshold:      5,
		BruteForceWindow:         10 * time.Minute,
		ExfilSizeThresholdBytes:  100 * 1024 * 1024,
		InsecureProtocols:        correlate.NewStringSet("ftp", "telnet", "http", "smb1"),
		ImpossibleTravelSpeedKmh: 900,
		Toxic:                    matrix,
		EOLOSVersions:            correlate.NewStringSet("windows xp", "windows 7"),
		MinimumPatchLevel:        3,
		PhishingRiskThreshold:    0.8,
	}
}

func testSnapshot(mutate func(*models.Snapshot)) *models.Snapshot {
	snap := &models.Snapshot{
		Window: models.TimeRange{
			From: testBase.Add(-24 * time.Hour),
			To:   testBase,
		},
	}
	if mutate != nil {
		mutate(snap)
	}
	snap.Finalize()
	return snap
}
