package models

import (
	"time"
)

// ModuleState is the terminal state of one detection module within a run.
type ModuleState string

const (
	ModuleSuccess ModuleState = "success"
	ModuleFailed  ModuleState = "failed"
	ModuleTimeout ModuleState = "timeout"
)

// ModuleStatus records how one detection module fared.
type ModuleStatus struct {
	Module        string        `json:"module"`
	DetectionType DetectionType `json:"detection_type"`
	State         ModuleState   `json:"state"`
	Error         string        `json:"error,omitempty"`
	FindingCount  int           `json:"finding_count"`
	Elapsed       time.Duration `json:"elapsed"`
}

// FindingGroup is all findings of one detection type, ordered by severity
// then timestamp.
type FindingGroup struct {
	DetectionType DetectionType `json:"detection_type"`
	Findings      []Finding     `json:"findings"`
}

// Summary aggregates counts over a finished report.
type Summary struct {
	TotalFindings int                   `json:"total_findings"`
	BySeverity    map[Severity]int      `json:"by_severity"`
	ByType        map[DetectionType]int `json:"by_type"`
	Fetched       map[Source]int        `json:"fetched"`
	Malformed     map[Source]int        `json:"malformed_skipped"`
}

// Report is the consolidated output of one audit run.
type Report struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Window      TimeRange      `json:"window"`
	Groups      []FindingGroup `json:"groups"`
	Modules     []ModuleStatus `json:"modules"`
	Summary     Summary        `json:"summary"`

	// Partial is set when any module failed, timed out, or was skipped
	// because its source was unavailable.
	Partial bool `json:"partial"`
}

// Findings flattens all groups in report order.
func (r *Report) Findings() []Finding {
	var out []Finding
	for _, g := range r.Groups {
		out = append(out, g.Findings...)
	}
	return out
}
