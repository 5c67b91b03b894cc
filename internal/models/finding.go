package models

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// DetectionType identifies which detection procedure produced a finding.
type DetectionType string

const (
	DetectionInsiderThreat    DetectionType = "insider_threat"
	DetectionSLAKPI           DetectionType = "sla_kpi"
	DetectionBruteForce       DetectionType = "brute_force"
	DetectionPhishing         DetectionType = "phishing_correlation"
	DetectionExfiltration     DetectionType = "exfiltration"
	DetectionImpossibleTravel DetectionType = "impossible_travel"
	DetectionSegregation      DetectionType = "segregation_of_duties"
	DetectionEndpointVuln     DetectionType = "endpoint_vulnerability"
)

// Severity classifies a finding for triage ordering.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank maps severities onto a comparable scale, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity maps a policy string onto a Severity, falling back when the
// string is empty or unknown.
func ParseSeverity(s string, fallback Severity) Severity {
	switch strings.ToLower(s) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "info":
		return SeverityInfo
	default:
		return fallback
	}
}

// Finding is one detected anomaly. Findings are engine-owned output records;
// they are never persisted by the engine itself.
type Finding struct {
	ID            string         `json:"id"`
	DetectionType DetectionType  `json:"detection_type"`
	Severity      Severity       `json:"severity"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id"`
	Evidence      map[string]any `json:"evidence"`
	Timestamp     time.Time      `json:"timestamp"`
	DedupKey      string         `json:"dedup_key"`
}

// NewFinding builds a finding with a deterministic identity: the dedup key
// hashes the detection type, entity, timestamp and evidence, and the ID is
// derived from the key. Identical snapshot plus identical configuration
// therefore yields byte-identical findings across runs.
func NewFinding(dt DetectionType, sev Severity, entityKind, entityID string, ts time.Time, evidence map[string]any) Finding {
	key := dedupKey(dt, entityKind, entityID, ts, evidence)
	return Finding{
		ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		DetectionType: dt,
		Severity:      sev,
		EntityKind:    entityKind,
		EntityID:      entityID,
		Evidence:      evidence,
		Timestamp:     ts,
		DedupKey:      key,
	}
}

func dedupKey(dt DetectionType, entityKind, entityID string, ts time.Time, evidence map[string]any) string {
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+4)
	parts = append(parts, string(dt), entityKind, entityID, ts.UTC().Format(time.RFC3339Nano))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, evidence[k]))
	}

	h1, h2 := murmur3.Sum128([]byte(strings.Join(parts, "|")))
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(h1 >> (56 - 8*i))
		buf[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}
