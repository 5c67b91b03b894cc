// Package detect implements the eight detection procedures of the audit
// engine. Each module is a pure function over an immutable snapshot and an
// injected configuration; modules never mutate the snapshot and may run
// concurrently.
package detect

import (
	"context"
	"time"

	"soc-audit/internal/config"
	"soc-audit/internal/correlate"
	"soc-audit/internal/models"
)

// Config is the engine configuration every module consumes. All thresholds
// are supplied by the caller; the engine hardcodes none of them.
type Config struct {
	BusinessHours            correlate.HoursWindow
	BruteForceThreshold      int
	BruteForceWindow         time.Duration
	ExfilSizeThresholdBytes  int64
	InsecureProtocols        correlate.StringSet
	ImpossibleTravelSpeedKmh float64
	Toxic                    *correlate.ToxicMatrix
	EOLOSVersions            correlate.StringSet
	MinimumPatchLevel        int
	PhishingRiskThreshold    float64
	RunTimeout               time.Duration
}

// BuildConfig assembles the module configuration from the environment
// settings and the detection policy file.
func BuildConfig(d config.DetectionConfig, p *config.Policy) Config {
	matrix := correlate.NewToxicMatrix()
	for _, tc := range p.ToxicCombinations {
		matrix.Add(tc.Role, tc.ResourceCategory, tc.Severity)
	}
	return Config{
		BusinessHours:            correlate.HoursWindow{Start: d.BusinessHoursStart, End: d.BusinessHoursEnd},
		BruteForceThreshold:      d.BruteForceThreshold,
		BruteForceWindow:         d.BruteForceWindow,
		ExfilSizeThresholdBytes:  d.ExfilSizeThresholdBytes,
		InsecureProtocols:        correlate.NewStringSet(p.InsecureProtocols...),
		ImpossibleTravelSpeedKmh: d.ImpossibleTravelSpeedKmh,
		Toxic:                    matrix,
		EOLOSVersions:            correlate.NewStringSet(p.EOLOSVersions...),
		MinimumPatchLevel:        d.MinimumPatchLevel,
		PhishingRiskThreshold:    d.PhishingRiskThreshold,
		RunTimeout:               d.RunTimeout,
	}
}

// Module is one independent detection procedure.
type Module interface {
	// Name is a stable identifier used in logs and module status records.
	Name() string

	// Type is the detection type stamped on every finding the module emits.
	Type() models.DetectionType

	// Requires lists the snapshot sources the module reads. A module whose
	// source failed to fetch is skipped with a failure status instead of
	// running against empty data.
	Requires() []models.Source

	// Detect evaluates the snapshot. It returns ctx.Err() promptly once the
	// run deadline expires.
	Detect(ctx context.Context, snap *models.Snapshot, cfg Config) ([]models.Finding, error)
}

// All returns the full module set in report order.
func All() []Module {
	return []Module{
		&BruteForce{},
		&EndpointVulnerability{},
		&Exfiltration{},
		&ImpossibleTravel{},
		&InsiderThreat{},
		&Phishing{},
		&Segregation{},
		&SLAKPI{},
	}
}

// checkEvery returns ctx.Err() on every multiple of stride, so long scans
// notice cancellation without paying for a check per element.
func checkEvery(ctx context.Context, i, stride int) error {
	if stride > 0 && i%stride == 0 {
		return ctx.Err()
	}
	return nil
}
