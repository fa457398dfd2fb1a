package authsdk

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionRevoked is returned by every Session call after Revoke succeeded.
var ErrSessionRevoked = errors.New("authsdk: session revoked")

// Session is an authenticated handle holding one API token. Tokens are not
// refreshed; call AuthenticateWithPassword again once the server rejects it.
type Session struct {
	client *SDKClient

	mu    sync.RWMutex
	token string
}

// Token returns the bearer token backing the session.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Revoke invalidates the token on the server and locally.
func (s *Session) Revoke(ctx context.Context) error {
	if err := s.client.RevokeToken(ctx, s.Token()); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

func (s *Session) currentToken() (string, error) {
	token := s.Token()
	if token == "" {
		return "", ErrSessionRevoked
	}
	return token, nil
}
