package models

import (
	"time"
)

// User is one identity record from the relational store. WorkdayStart and
// WorkdayEnd are hours of day; both zero means the user has no individual
// window and the configured default applies.
type User struct {
	UserID       string `db:"user_id" json:"user_id" validate:"required"`
	Department   string `db:"department" json:"department" validate:"required"`
	Role         string `db:"role" json:"role" validate:"required"`
	WorkdayStart int    `db:"workday_start" json:"workday_start" validate:"gte=0,lte=23"`
	WorkdayEnd   int    `db:"workday_end" json:"workday_end" validate:"gte=0,lte=24"`
	Timezone     string `db:"timezone" json:"timezone"`
}

// AuthEvent is one login attempt from the document store.
type AuthEvent struct {
	UserID    string    `json:"user_id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Success   bool      `json:"success"`
	SourceIP  string    `json:"source_ip"`
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
}

// AccessEvent is one resource access from the document store.
type AccessEvent struct {
	UserID           string    `json:"user_id" validate:"required"`
	ResourceID       string    `json:"resource_id" validate:"required"`
	ResourceCategory string    `json:"resource_category"`
	Timestamp        time.Time `json:"timestamp" validate:"required"`
	Protocol         string    `json:"protocol"`
	BytesTransferred int64     `json:"bytes_transferred" validate:"gte=0"`
	DestinationIP    string    `json:"destination_ip"`
}

// Incident is one tracked security incident. ClosedAt is nil while the
// incident is still open.
type Incident struct {
	IncidentID string     `db:"incident_id" json:"incident_id" validate:"required"`
	ThreatType string     `db:"threat_type" json:"threat_type" validate:"required"`
	OpenedAt   time.Time  `db:"opened_at" json:"opened_at" validate:"required"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

// Email is one delivered email with its phishing risk assessment.
type Email struct {
	EmailID         string  `db:"email_id" json:"email_id" validate:"required"`
	RecipientUserID string  `db:"recipient_user_id" json:"recipient_user_id" validate:"required"`
	RiskScore       float64 `db:"risk_score" json:"risk_score" validate:"gte=0,lte=1"`
	Clicked         bool    `db:"clicked" json:"clicked"`
}

// Device is one managed endpoint. OwnerUserID may be empty for shared or
// unassigned devices.
type Device struct {
	DeviceID    string     `db:"device_id" json:"device_id" validate:"required"`
	OwnerUserID string     `db:"owner_user_id" json:"owner_user_id"`
	OSName      string     `db:"os_name" json:"os_name"`
	OSVersion   string     `db:"os_version" json:"os_version" validate:"required"`
	PatchLevel  int        `db:"patch_level" json:"patch_level"`
	EOL         bool       `db:"eol" json:"eol"`
	EOLDate     *time.Time `db:"eol_date" json:"eol_date,omitempty"`
}

// Incident duration helpers.

// Duration returns how long the incident was open, or false if it still is.
func (i Incident) Duration() (time.Duration, bool) {
	if i.ClosedAt == nil {
		return 0, false
	}
	return i.ClosedAt.Sub(i.OpenedAt), true
}
