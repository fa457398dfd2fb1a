package authsdk

import (
	"context"
	"net/http"
)

// IssueToken exchanges Basic credentials for an API token. While the current
// token is fresh the server hands back the same value.
func (c *SDKClient) IssueToken(ctx context.Context, username, password string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/tokens"), nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(username, password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return "", err
	}
	return tokenResp.Token, nil
}

// RevokeToken revokes token so later requests with it are rejected.
func (c *SDKClient) RevokeToken(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/tokens", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
