package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

const mib = 1024 * 1024

func transfer(proto string, bytes int64) models.AccessEvent {
	return models.AccessEvent{
		UserID:           "u-1",
		ResourceID:       "r-1",
		Timestamp:        testBase,
		Protocol:         proto,
		BytesTransferred: bytes,
	}
}

func TestExfiltrationThresholdIsStrict(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AccessEvents = []models.AccessEvent{
			transfer("ftp", 100*mib),   // exactly at the threshold
			transfer("ftp", 100*mib+1), // one byte over
		}
	})

	findings, err := (&Exfiltration{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityCritical, findings[0].Severity)
	assert.Equal(t, int64(100*mib+1), findings[0].Evidence["bytes_transferred"])
}

func TestExfiltrationIgnoresSecureProtocols(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AccessEvents = []models.AccessEvent{
			transfer("sftp", 500*mib),
			transfer("https", 500*mib),
		}
	})

	findings, err := (&Exfiltration{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestExfiltrationProtocolMatchIsCaseInsensitive(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.AccessEvents = []models.AccessEvent{transfer("FTP", 500*mib)}
	})

	findings, err := (&Exfiltration{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestExfiltrationRecordsDestination(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		e := transfer("telnet", 500*mib)
		e.DestinationIP = "198.51.100.9"
		s.AccessEvents = []models.AccessEvent{e}
	})

	findings, err := (&Exfiltration{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "198.51.100.9", findings[0].Evidence["destination_ip"])
}
