package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc-audit/internal/models"
)

func TestEndpointFlagsEOLDevice(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Devices = []models.Device{{
			DeviceID: "d-1", OwnerUserID: "u-1",
			OSName: "Windows", OSVersion: "XP",
			PatchLevel: 9, EOL: true,
		}}
	})

	findings, err := (&EndpointVulnerability{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "d-1", findings[0].EntityID)
	assert.Equal(t, "device", findings[0].EntityKind)
	assert.Contains(t, findings[0].Evidence["conditions"], "eol_flag")
	assert.Contains(t, findings[0].Evidence["conditions"], "eol_os_version")
}

func TestEndpointFlagsEOLOSVersionWithoutFlag(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Devices = []models.Device{{
			DeviceID: "d-1", OSName: "Windows", OSVersion: "7", PatchLevel: 9,
		}}
	})

	findings, err := (&EndpointVulnerability{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "eol_os_version", findings[0].Evidence["conditions"])
}

func TestEndpointFlagsLowPatchLevelAsMedium(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Devices = []models.Device{{
			DeviceID: "d-1", OSName: "Ubuntu", OSVersion: "24.04", PatchLevel: 2,
		}}
	})

	findings, err := (&EndpointVulnerability{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityMedium, findings[0].Severity)
	assert.Equal(t, "patch_level_below_minimum", findings[0].Evidence["conditions"])
}

func TestEndpointHealthyDeviceDoesNotFlag(t *testing.T) {
	snap := testSnapshot(func(s *models.Snapshot) {
		s.Devices = []models.Device{{
			DeviceID: "d-1", OSName: "Ubuntu", OSVersion: "24.04", PatchLevel: 7,
		}}
	})

	findings, err := (&EndpointVulnerability{}).Detect(context.Background(), snap, testConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}
