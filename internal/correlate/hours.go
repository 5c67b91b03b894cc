// Package correlate provides the stateless primitives shared by the
// detection modules: business-hours membership, great-circle distance,
// sliding-window failure counting, and policy lookup tables.
package correlate

import (
	"time"
)

// HoursWindow is an inclusive-exclusive [Start, End) window of hours within
// a day. An event at Start is inside the window; an event at End is not.
type HoursWindow struct {
	Start int
	End   int
}

// Contains reports whether t falls inside the window after normalizing to
// the given IANA timezone. An empty or unknown timezone falls back to UTC.
func (w HoursWindow) Contains(t time.Time, timezone string) bool {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	hour := t.In(loc).Hour()
	return hour >= w.Start && hour < w.End
}
