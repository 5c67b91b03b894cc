package models

import (
	"sort"
	"time"
)

// Source names one fetchable collection. Module availability is tracked per
// source so a single failed fetch only degrades the modules that need it.
type Source string

const (
	SourceUsers        Source = "users"
	SourceIncidents    Source = "incidents"
	SourceDevices      Source = "devices"
	SourceEmails       Source = "emails"
	SourceAccessEvents Source = "access_events"
	SourceAuthEvents   Source = "auth_events"
)

// AllSources lists every source in fetch order.
var AllSources = []Source{
	SourceUsers,
	SourceIncidents,
	SourceDevices,
	SourceEmails,
	SourceAccessEvents,
	SourceAuthEvents,
}

// TimeRange bounds the event window of one audit run.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SnapshotStats counts what each fetch saw.
type SnapshotStats struct {
	Fetched   map[Source]int `json:"fetched"`
	Malformed map[Source]int `json:"malformed"`
}

// Snapshot is the immutable, point-in-time data set one audit run operates
// on. It is assembled once by the loader and only read afterwards, so the
// detection modules share it without coordination.
type Snapshot struct {
	Window TimeRange

	Users        []User
	Incidents    []Incident
	Devices      []Device
	Emails       []Email
	AccessEvents []AccessEvent
	AuthEvents   []AuthEvent

	// SourceErrors records fetches that failed after retries. Modules
	// depending on a failed source are skipped with a failure status.
	SourceErrors map[Source]error

	Stats SnapshotStats

	usersByID map[string]User
}

// Finalize sorts the event sequences and builds the user index. Call once
// after all fetches complete; the snapshot must not change afterwards.
func (s *Snapshot) Finalize() {
	sort.SliceStable(s.AuthEvents, func(i, j int) bool {
		if s.AuthEvents[i].UserID != s.AuthEvents[j].UserID {
			return s.AuthEvents[i].UserID < s.AuthEvents[j].UserID
		}
		return s.AuthEvents[i].Timestamp.Before(s.AuthEvents[j].Timestamp)
	})
	sort.SliceStable(s.AccessEvents, func(i, j int) bool {
		if s.AccessEvents[i].UserID != s.AccessEvents[j].UserID {
			return s.AccessEvents[i].UserID < s.AccessEvents[j].UserID
		}
		return s.AccessEvents[i].Timestamp.Before(s.AccessEvents[j].Timestamp)
	})

	s.usersByID = make(map[string]User, len(s.Users))
	for _, u := range s.Users {
		s.usersByID[u.UserID] = u
	}
}

// UserByID resolves a user id against the snapshot.
func (s *Snapshot) UserByID(id string) (User, bool) {
	u, ok := s.usersByID[id]
	return u, ok
}

// SourceFailed reports whether the given source could not be fetched.
func (s *Snapshot) SourceFailed(src Source) bool {
	if s.SourceErrors == nil {
		return false
	}
	_, failed := s.SourceErrors[src]
	return failed
}

// AuthEventsByUser groups the (already user/time ordered) auth events.
func (s *Snapshot) AuthEventsByUser() map[string][]AuthEvent {
	out := make(map[string][]AuthEvent)
	for _, e := range s.AuthEvents {
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}
