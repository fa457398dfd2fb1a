package authsdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewSDKClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthenticateWithPassword(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tokens", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "susan" || pass != "cat" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, TokenResponse{Token: "tok-1"})
	})
	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, User{ID: r.PathValue("id"), Username: "susan"})
	})
	mux.HandleFunc("DELETE /api/tokens", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestServer(t, mux)
	ctx := t.Context()

	_, err := client.AuthenticateWithPassword(ctx, "susan", "dog")
	require.True(t, IsStatus(err, http.StatusUnauthorized))

	session, err := client.AuthenticateWithPassword(ctx, "susan", "cat")
	require.NoError(t, err)
	require.Equal(t, "tok-1", session.Token())

	user, err := session.GetUser(ctx, "01J")
	require.NoError(t, err)
	require.Equal(t, "01J", user.ID)

	require.NoError(t, session.Revoke(ctx))
	_, err = session.GetUser(ctx, "01J")
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRegisterUserReturnsAPIError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username == "taken" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Bad Request",
				Message: "Please use a different username.",
			})
			return
		}
		w.Header().Set("Location", "/api/users/01K")
		writeJSON(w, http.StatusCreated, User{ID: "01K", Username: req.Username, Email: req.Email})
	})
	client := newTestServer(t, mux)
	ctx := t.Context()

	user, err := client.RegisterUser(ctx, CreateUserRequest{Username: "new", Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)

	_, err = client.RegisterUser(ctx, CreateUserRequest{Username: "taken", Email: "t@example.com", Password: "pw"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Bad Request", apiErr.Code)
	require.Equal(t, "Please use a different username.", apiErr.Message)
}

func TestListQueryParameters(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}/followers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, UserList{Items: []User{}, Meta: PageMeta{Page: 2, PerPage: 5}})
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, UserList{Items: []User{{ID: "a"}}})
	})
	client := newTestServer(t, mux)
	session := client.NewSessionFromToken("tok")
	ctx := t.Context()

	list, err := session.Followers(ctx, "01J", 2, 5)
	require.NoError(t, err)
	require.Equal(t, 2, list.Meta.Page)
	require.Empty(t, list.Items)

	list, err = session.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
}

func TestParseErrorResponseWithoutJSONBody(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})
	client := newTestServer(t, mux)

	_, err := client.GetReadiness(t.Context())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Equal(t, "Service Unavailable", apiErr.Code)
	require.Empty(t, apiErr.Message)
}
