package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// writeServiceError maps a service error to its API response. Unexpected
// errors are logged and answered with a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fields service.ValidationErrors
	switch {
	case errors.As(err, &fields):
		httpx.WriteError(w, http.StatusBadRequest, strings.Join(fields.Messages(), " "))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "")
	case errors.Is(err, service.ErrSelfActionDenied):
		httpx.WriteError(w, http.StatusBadRequest, "cannot target yourself")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "")
	}
}

// basicVerifier adapts the credential check to the Basic auth middleware.
type basicVerifier struct {
	creds *service.CredentialService
}

func (v basicVerifier) VerifyCredentials(ctx context.Context, username, password string) (string, error) {
	identity, err := v.creds.VerifyCredentials(ctx, username, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return "", fmt.Errorf("%w: %w", httpx.ErrAuthFailed, err)
	}
	if err != nil {
		return "", err
	}
	return identity.ID, nil
}

// bearerVerifier adapts API token resolution to the bearer middleware.
type bearerVerifier struct {
	tokens *service.APITokenService
}

func (v bearerVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	identity, err := v.tokens.AuthenticateToken(ctx, token)
	if errors.Is(err, service.ErrInvalidToken) {
		return "", fmt.Errorf("%w: %w", httpx.ErrAuthFailed, err)
	}
	if err != nil {
		return "", err
	}
	return identity.ID, nil
}
