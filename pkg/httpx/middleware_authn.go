package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// ErrAuthFailed marks verifier errors meaning the presented credentials were
// refused. The middleware answers those with 401 and any other verifier error
// with 500.
var ErrAuthFailed = errors.New("httpx: authentication failed")

// TokenVerifier resolves a bearer token to the id of the identity holding it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// CredentialVerifier resolves a username and password to an identity id.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (string, error)
}

// AuthOption tunes BearerAuth and BasicAuth.
type AuthOption func(*authOptions)

type authOptions struct {
	onReject func(r *http.Request)
}

// WithRejectHook registers fn to run whenever a request is answered with 401.
func WithRejectHook(fn func(r *http.Request)) AuthOption {
	return func(o *authOptions) { o.onReject = fn }
}

func buildAuthOptions(opts []AuthOption) authOptions {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.onReject == nil {
		o.onReject = func(*http.Request) {}
	}
	return o
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func ParseBearer(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuth rejects requests without a valid bearer token with 401 and
// stores the identity id in the context otherwise.
func BearerAuth(v TokenVerifier, opts ...AuthOption) Middleware {
	o := buildAuthOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := ParseBearer(r)
			if !ok {
				o.onReject(r)
				writeBearerError(w, "")
				return
			}

			userID, err := v.VerifyToken(ctx, raw)
			switch {
			case errors.Is(err, ErrAuthFailed):
				slogx.FromContext(ctx).Info("bearer token rejected", "err", err)
				o.onReject(r)
				writeBearerError(w, "invalid_token")
				return
			case err != nil:
				slogx.FromContext(ctx).Error("bearer token check failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "")
				return
			}

			ctx = slogx.With(WithUserID(ctx, userID), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BasicAuth requires HTTP Basic credentials accepted by v.
func BasicAuth(v CredentialVerifier, realm string, opts ...AuthOption) Middleware {
	o := buildAuthOptions(opts)
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			username, password, ok := r.BasicAuth()
			if !ok {
				o.onReject(r)
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, http.StatusUnauthorized, "")
				return
			}

			userID, err := v.VerifyCredentials(ctx, username, password)
			switch {
			case errors.Is(err, ErrAuthFailed):
				slogx.FromContext(ctx).Info("basic credentials rejected", "err", err)
				o.onReject(r)
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, http.StatusUnauthorized, "")
				return
			case err != nil:
				slogx.FromContext(ctx).Error("basic credentials check failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "")
				return
			}

			ctx = slogx.With(WithUserID(ctx, userID), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750 error response for bearer auth. Every refusal cause maps to the
// same 401 so clients never learn why a token was refused.
func writeBearerError(w http.ResponseWriter, code string) {
	challenge := `Bearer realm="api"`
	if code != "" {
		challenge += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	WriteError(w, http.StatusUnauthorized, "")
}
