//go:build e2e

package murmur_test

import (
	"testing"

	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check on a fresh install.
func TestLivezEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupMurmurContainer(t, containerOptions{}))

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies readiness reports the database.
func TestReadyzEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupMurmurContainer(t, containerOptions{}))

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}
