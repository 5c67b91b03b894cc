package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soc-audit/internal/config"
	"soc-audit/internal/correlate"
	"soc-audit/internal/detect"
	"soc-audit/internal/engine"
	"soc-audit/internal/models"
	"soc-audit/internal/repository/redis"
	"soc-audit/internal/service"
)

type stubStore struct{}

func (s *stubStore) FetchUsers(context.Context) ([]models.User, int, error) {
	return []models.User{{UserID: "u-1", Department: "it", Role: "it"}}, 0, nil
}

func (s *stubStore) FetchIncidents(context.Context) ([]models.Incident, int, error) {
	return nil, 0, nil
}

func (s *stubStore) FetchDevices(context.Context) ([]models.Device, int, error) {
	return nil, 0, nil
}

func (s *stubStore) FetchEmails(context.Context) ([]models.Email, int, error) {
	return []models.Email{{EmailID: "e-1", RecipientUserID: "u-1", RiskScore: 0.95, Clicked: true}}, 0, nil
}

func (s *stubStore) FetchAccessEvents(context.Context, models.TimeRange) ([]models.AccessEvent, int, error) {
	return nil, 0, nil
}

func (s *stubStore) FetchAuthEvents(context.Context, models.TimeRange) ([]models.AuthEvent, int, error) {
	return nil, 0, nil
}

type memoryCache struct {
	mu     sync.Mutex
	report *models.Report
	locked bool
}

func (c *memoryCache) Store(_ context.Context, report *models.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = report
	return nil
}

func (c *memoryCache) Latest(context.Context) (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return nil, redis.ErrNoCachedReport
	}
	return c.report, nil
}

func (c *memoryCache) AcquireRunLock(context.Context, string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return false, nil
	}
	c.locked = true
	return true, nil
}

func (c *memoryCache) ReleaseRunLock(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked = false
}

func newTestServer(cache service.ReportCache) *httptest.Server {
	store := &stubStore{}
	loader := engine.NewLoader(store, store, config.FetchConfig{MaxAttempts: 1, BackoffBase: time.Millisecond}, zap.NewNop())
	cfg := detect.Config{
		BusinessHours:            correlate.HoursWindow{Start: 8, End: 20},
		BruteForceThreshold:      5,
		BruteForceWindow:         10 * time.Minute,
		ExfilSizeThresholdBytes:  100 * 1024 * 1024,
		InsecureProtocols:        correlate.NewStringSet("ftp"),
		ImpossibleTravelSpeedKmh: 900,
		Toxic:                    correlate.NewToxicMatrix(),
		EOLOSVersions:            correlate.NewStringSet(),
		PhishingRiskThreshold:    0.8,
	}
	svc := service.NewAuditService(loader, engine.NewAggregator(zap.NewNop()), cfg, cache, nil, "security.findings", zap.NewNop())
	auditHandler := NewAuditHandler(svc, zap.NewNop())
	return httptest.NewServer(NewRouter(auditHandler, zap.NewNop()))
}

func decodeResponse(t *testing.T, res *http.Response) Response {
	t.Helper()
	defer res.Body.Close()
	var out Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestRunAuditEndpoint(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/v1/audit/run", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	out := decodeResponse(t, res)
	assert.True(t, out.Success)
	assert.NotNil(t, out.Data)
}

func TestRunAuditEndpointRejectsBadBody(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/v1/audit/run", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.False(t, decodeResponse(t, res).Success)
}

func TestRunAuditEndpointRejectsInvertedWindow(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	body := `{"from":"2026-03-10T12:00:00Z","to":"2026-03-09T12:00:00Z"}`
	res, err := http.Post(srv.URL+"/api/v1/audit/run", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLatestEndpointBeforeAnyRun(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/v1/audit/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}

func TestLatestEndpointAfterRun(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/v1/audit/run", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err = http.Get(srv.URL + "/api/v1/audit/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decodeResponse(t, res).Success)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
}

func TestUnknownEndpoint(t *testing.T) {
	srv := newTestServer(&memoryCache{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}
