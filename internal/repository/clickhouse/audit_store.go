// Package clickhouse implements the typed read-only adapters over the
// relational store: users, incidents, devices, and emails.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"soc-audit/internal/client"
	"soc-audit/internal/engine"
	"soc-audit/internal/models"
)

// AuditStore reads identity and asset records from ClickHouse. Malformed
// rows are skipped and counted, never fatal; only connectivity failures
// surface as errors.
type AuditStore struct {
	client   *client.ClickHouseClient
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAuditStore wires the relational adapter.
func NewAuditStore(ch *client.ClickHouseClient, logger *zap.Logger) *AuditStore {
	return &AuditStore{
		client:   ch,
		validate: validator.New(),
		logger:   logger,
	}
}

// FetchUsers returns all users ordered by id.
func (s *AuditStore) FetchUsers(ctx context.Context) ([]models.User, int, error) {
	rows, err := s.client.QueryRows(ctx, `
		SELECT user_id, department, role, workday_start, workday_end, timezone
		FROM users ORDER BY user_id`)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	skipped := 0
	for rows.Next() {
		var (
			u                  models.User
			workStart, workEnd int32
		)
		if err := rows.Scan(&u.UserID, &u.Department, &u.Role, &workStart, &workEnd, &u.Timezone); err != nil {
			skipped++
			s.skip(models.SourceUsers, err.Error())
			continue
		}
		u.WorkdayStart, u.WorkdayEnd = int(workStart), int(workEnd)
		if err := s.validate.Struct(u); err != nil {
			skipped++
			s.skip(models.SourceUsers, err.Error())
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, skipped, nil
}

// FetchIncidents returns all incidents ordered by opening time. ClosedAt is
// null while an incident is still open.
func (s *AuditStore) FetchIncidents(ctx context.Context) ([]models.Incident, int, error) {
	rows, err := s.client.QueryRows(ctx, `
		SELECT incident_id, threat_type, opened_at, closed_at
		FROM incidents ORDER BY opened_at, incident_id`)
	if err != nil {
		return nil, 0, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	skipped := 0
	for rows.Next() {
		var inc models.Incident
		if err := rows.Scan(&inc.IncidentID, &inc.ThreatType, &inc.OpenedAt, &inc.ClosedAt); err != nil {
			skipped++
			s.skip(models.SourceIncidents, err.Error())
			continue
		}
		if err := s.validate.Struct(inc); err != nil {
			skipped++
			s.skip(models.SourceIncidents, err.Error())
			continue
		}
		// closed_at predating opened_at is a malformed record, not a
		// negative response time
		if inc.ClosedAt != nil && inc.ClosedAt.Before(inc.OpenedAt) {
			skipped++
			s.skip(models.SourceIncidents, "closed_at before opened_at")
			continue
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, skipped, nil
}

// FetchDevices returns all managed endpoints ordered by id.
func (s *AuditStore) FetchDevices(ctx context.Context) ([]models.Device, int, error) {
	rows, err := s.client.QueryRows(ctx, `
		SELECT device_id, owner_user_id, os_name, os_version, patch_level, eol, eol_date
		FROM devices ORDER BY device_id`)
	if err != nil {
		return nil, 0, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	skipped := 0
	for rows.Next() {
		var (
			d          models.Device
			patchLevel int32
			eolDate    *time.Time
		)
		if err := rows.Scan(&d.DeviceID, &d.OwnerUserID, &d.OSName, &d.OSVersion, &patchLevel, &d.EOL, &eolDate); err != nil {
			skipped++
			s.skip(models.SourceDevices, err.Error())
			continue
		}
		d.PatchLevel = int(patchLevel)
		d.EOLDate = eolDate
		if err := s.validate.Struct(d); err != nil {
			skipped++
			s.skip(models.SourceDevices, err.Error())
			continue
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, skipped, nil
}

// FetchEmails returns all risk-scored emails ordered by id.
func (s *AuditStore) FetchEmails(ctx context.Context) ([]models.Email, int, error) {
	rows, err := s.client.QueryRows(ctx, `
		SELECT email_id, recipient_user_id, risk_score, clicked
		FROM emails ORDER BY email_id`)
	if err != nil {
		return nil, 0, fmt.Errorf("query emails: %w", err)
	}
	defer rows.Close()

	var emails []models.Email
	skipped := 0
	for rows.Next() {
		var e models.Email
		if err := rows.Scan(&e.EmailID, &e.RecipientUserID, &e.RiskScore, &e.Clicked); err != nil {
			skipped++
			s.skip(models.SourceEmails, err.Error())
			continue
		}
		if err := s.validate.Struct(e); err != nil {
			skipped++
			s.skip(models.SourceEmails, err.Error())
			continue
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate emails: %w", err)
	}
	return emails, skipped, nil
}

func (s *AuditStore) skip(src models.Source, reason string) {
	s.logger.Warn("skipping malformed record",
		zap.Error(&engine.MalformedRecordError{Source: src, Reason: reason}),
	)
}
