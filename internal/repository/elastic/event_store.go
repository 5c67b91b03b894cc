// Package elastic implements the read-only adapters over the document
// store: access events and auth events, queryable by time range.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"soc-audit/internal/client"
	"soc-audit/internal/engine"
	"soc-audit/internal/models"
)

const (
	accessEventIndex = "access-events"
	authEventIndex   = "auth-events"
)

// EventStore reads event documents from Elasticsearch. Documents that fail
// validation are skipped and counted; only transport or cluster failures
// surface as errors.
type EventStore struct {
	client   *client.ESClient
	pageSize int
	validate *validator.Validate
	logger   *zap.Logger
}

// NewEventStore wires the document adapter.
func NewEventStore(es *client.ESClient, pageSize int, logger *zap.Logger) *EventStore {
	return &EventStore{
		client:   es,
		pageSize: pageSize,
		validate: validator.New(),
		logger:   logger,
	}
}

// searchEnvelope is the slice of the search response we consume.
type searchEnvelope struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchAccessEvents returns access events within the window, ordered by
// timestamp.
func (s *EventStore) FetchAccessEvents(ctx context.Context, window models.TimeRange) ([]models.AccessEvent, int, error) {
	env, err := s.search(ctx, accessEventIndex, window)
	if err != nil {
		return nil, 0, err
	}

	events := make([]models.AccessEvent, 0, len(env.Hits.Hits))
	skipped := 0
	for _, hit := range env.Hits.Hits {
		var e models.AccessEvent
		if err := json.Unmarshal(hit.Source, &e); err != nil {
			skipped++
			s.skip(models.SourceAccessEvents, err.Error())
			continue
		}
		if err := s.validate.Struct(e); err != nil {
			skipped++
			s.skip(models.SourceAccessEvents, err.Error())
			continue
		}
		events = append(events, e)
	}
	return events, skipped, nil
}

// FetchAuthEvents returns auth events within the window, ordered by
// timestamp.
func (s *EventStore) FetchAuthEvents(ctx context.Context, window models.TimeRange) ([]models.AuthEvent, int, error) {
	env, err := s.search(ctx, authEventIndex, window)
	if err != nil {
		return nil, 0, err
	}

	events := make([]models.AuthEvent, 0, len(env.Hits.Hits))
	skipped := 0
	for _, hit := range env.Hits.Hits {
		var e models.AuthEvent
		if err := json.Unmarshal(hit.Source, &e); err != nil {
			skipped++
			s.skip(models.SourceAuthEvents, err.Error())
			continue
		}
		if err := s.validate.Struct(e); err != nil {
			skipped++
			s.skip(models.SourceAuthEvents, err.Error())
			continue
		}
		events = append(events, e)
	}
	return events, skipped, nil
}

func (s *EventStore) search(ctx context.Context, index string, window models.TimeRange) (*searchEnvelope, error) {
	query := map[string]interface{}{
		"size": s.pageSize,
		"sort": []map[string]interface{}{
			{"timestamp": map[string]interface{}{"order": "asc"}},
		},
		"query": map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": window.From.UTC().Format(time.RFC3339),
					"lte": window.To.UTC().Format(time.RFC3339),
				},
			},
		},
	}

	res, err := s.client.Search(ctx, index, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	var env searchEnvelope
	if err := s.client.ParseResponse(res, &env); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", index, err)
	}

	if env.Hits.Total.Value > len(env.Hits.Hits) {
		s.logger.Warn("event window exceeds page size, tail not fetched",
			zap.String("index", index),
			zap.Int("total", env.Hits.Total.Value),
			zap.Int("fetched", len(env.Hits.Hits)),
		)
	}
	return &env, nil
}

func (s *EventStore) skip(src models.Source, reason string) {
	s.logger.Warn("skipping malformed document",
		zap.Error(&engine.MalformedRecordError{Source: src, Reason: reason}),
	)
}
