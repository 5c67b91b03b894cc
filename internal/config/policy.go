package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds the detection policy data that is awkward to express as
// scalar environment variables: the segregation-of-duties matrix and the
// insecure-protocol / end-of-life sets. Adding a toxic pair or a protocol is
// a policy file edit, not a code change.
type Policy struct {
	ToxicCombinations []ToxicCombination `yaml:"toxic_combinations"`
	InsecureProtocols []string           `yaml:"insecure_protocols"`
	EOLOSVersions     []string           `yaml:"eol_os_versions"`
}

// ToxicCombination is one forbidden (role, resource category) pair.
type ToxicCombination struct {
	Role             string `yaml:"role"`
	ResourceCategory string `yaml:"resource_category"`
	Severity         string `yaml:"severity"`
}

// LoadPolicy reads and validates the detection policy YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for i, tc := range p.ToxicCombinations {
		if tc.Role == "" || tc.ResourceCategory == "" {
			return nil, fmt.Errorf("toxic combination %d: role and resource_category are required", i)
		}
		switch strings.ToLower(tc.Severity) {
		case "", "low", "medium", "high", "critical":
		default:
			return nil, fmt.Errorf("toxic combination %d: unknown severity %q", i, tc.Severity)
		}
	}
	return &p, nil
}

// DefaultPolicy returns the policy used when no file is configured. It
// mirrors the shipped configs/policy.yaml.
func DefaultPolicy() *Policy {
	return &Policy{
		ToxicCombinations: []ToxicCombination{
			{Role: "it", ResourceCategory: "finance", Severity: "high"},
			{Role: "it", ResourceCategory: "hr", Severity: "high"},
			{Role: "engineering", ResourceCategory: "finance", Severity: "high"},
			{Role: "sales", ResourceCategory: "hr", Severity: "medium"},
		},
		InsecureProtocols: []string{"ftp", "telnet", "http", "smb1"},
		EOLOSVersions:     []string{"windows xp", "windows 7", "ubuntu 14.04"},
	}
}
