//go:build e2e

package murmur_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitTokenEndpoint verifies POST /api/tokens uses the strict tier
// (5 req/min per IP and username) with production defaults.
func TestRateLimitTokenEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupMurmurContainer(t, containerOptions{}))
	ctx := t.Context()

	for i := range 5 {
		_, err := client.IssueToken(ctx, "wronguser", "wrongpass")
		require.Error(t, err)
		require.False(t, authsdk.IsStatus(err, http.StatusTooManyRequests), "Should not be rate limited yet (request %d)", i+1)
	}

	_, err := client.IssueToken(ctx, "wronguser", "wrongpass")
	assertStatus(t, err, http.StatusTooManyRequests, "sixth attempt")
}
