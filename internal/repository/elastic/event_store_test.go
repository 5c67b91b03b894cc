package elastic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

const sampleSearchResponse = `{
	"took": 3,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_source": {
				"user_id": "u-1",
				"resource_id": "r-1",
				"resource_category": "finance",
				"timestamp": "2026-03-10T02:15:00Z",
				"protocol": "ftp",
				"bytes_transferred": 157286400,
				"destination_ip": "198.51.100.9"
			}},
			{"_source": {
				"user_id": "u-2",
				"resource_id": "r-2",
				"timestamp": "2026-03-10T09:30:00Z",
				"protocol": "https",
				"bytes_transferred": 2048
			}}
		]
	}
}`

func TestSearchEnvelopeDecodesAccessEvents(t *testing.T) {
	var env searchEnvelope
	require.NoError(t, json.Unmarshal([]byte(sampleSearchResponse), &env))

	assert.Equal(t, 2, env.Hits.Total.Value)
	require.Len(t, env.Hits.Hits, 2)

	var first models.AccessEvent
	require.NoError(t, json.Unmarshal(env.Hits.Hits[0].Source, &first))
	assert.Equal(t, "u-1", first.UserID)
	assert.Equal(t, "finance", first.ResourceCategory)
	assert.Equal(t, int64(157286400), first.BytesTransferred)
	assert.Equal(t, "198.51.100.9", first.DestinationIP)
	assert.Equal(t, time.Date(2026, 3, 10, 2, 15, 0, 0, time.UTC), first.Timestamp.UTC())

	var second models.AccessEvent
	require.NoError(t, json.Unmarshal(env.Hits.Hits[1].Source, &second))
	assert.Empty(t, second.DestinationIP)
}

func TestSearchEnvelopeDecodesAuthEvents(t *testing.T) {
	raw := `{"hits":{"total":{"value":1},"hits":[{"_source":{
		"user_id": "u-1",
		"timestamp": "2026-03-10T08:00:00Z",
		"success": false,
		"source_ip": "203.0.113.7",
		"latitude": 51.5074,
		"longitude": -0.1278
	}}]}}`

	var env searchEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.Len(t, env.Hits.Hits, 1)

	var e models.AuthEvent
	require.NoError(t, json.Unmarshal(env.Hits.Hits[0].Source, &e))
	assert.Equal(t, "u-1", e.UserID)
	assert.False(t, e.Success)
	assert.InDelta(t, 51.5074, e.Latitude, 0.0001)
	assert.InDelta(t, -0.1278, e.Longitude, 0.0001)
}
