package correlate

import (
	"strings"
)

// ToxicMatrix is the segregation-of-duties lookup table: (role, resource
// category) -> severity label. Lookups are exact-match after case folding;
// pairs absent from the matrix never flag.
type ToxicMatrix struct {
	entries map[[2]string]string
}

// NewToxicMatrix returns an empty matrix.
func NewToxicMatrix() *ToxicMatrix {
	return &ToxicMatrix{entries: make(map[[2]string]string)}
}

// Add registers a forbidden pair with its severity label.
func (m *ToxicMatrix) Add(role, resourceCategory, severity string) {
	m.entries[[2]string{fold(role), fold(resourceCategory)}] = severity
}

// Lookup returns the severity label for the pair and whether it is toxic.
func (m *ToxicMatrix) Lookup(role, resourceCategory string) (string, bool) {
	sev, ok := m.entries[[2]string{fold(role), fold(resourceCategory)}]
	return sev, ok
}

// Len returns the number of registered pairs.
func (m *ToxicMatrix) Len() int {
	return len(m.entries)
}

// StringSet is a case-insensitive membership set used for the insecure
// protocol and EOL OS version policies.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[fold(v)] = struct{}{}
	}
	return s
}

// Contains reports membership, ignoring case and surrounding space.
func (s StringSet) Contains(v string) bool {
	_, ok := s[fold(v)]
	return ok
}

func fold(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
