package http

import (
	"net/http"

	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
)

// TokensHandler serves /api/tokens. Issuing sits behind Basic auth, revoking
// behind the bearer token being revoked.
type TokensHandler struct {
	TokenService *service.APITokenService
}

// HandleIssue godoc
//
//	@Summary		Issue an API token
//	@Description	Exchanges HTTP Basic credentials for an opaque API token.
//	@Description	While the current token has more than the freshness floor left, the same token is returned.
//	@Tags			Tokens
//	@Security		BasicAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenResponse	"token"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid credentials"
//	@Failure		429	{object}	authsdk.ErrorResponse	"Rate limited"
//	@Header			200	{string}	Cache-Control			"no-store"
//	@Router			/api/tokens [post].
func (h *TokensHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "")
		return
	}

	token, _, err := h.TokenService.IssueToken(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{Token: token})
}

// HandleRevoke godoc
//
//	@Summary		Revoke the API token
//	@Description	Clears the caller's API token. Later requests carrying it are rejected.
//	@Tags			Tokens
//	@Security		BearerAuth
//	@Success		204	"Token revoked"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid token"
//	@Router			/api/tokens [delete].
func (h *TokensHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "")
		return
	}

	if err := h.TokenService.Revoke(ctx, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
