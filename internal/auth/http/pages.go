package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

const (
	loginPath = "/auth/login"
	indexPath = service.DefaultRedirect
)

// pageModel is what a browser page receives in place of rendered HTML.
type pageModel struct {
	Title   string                   `json:"title"`
	Flashes []string                 `json:"flashes"`
	User    *authsdk.User            `json:"current_user,omitempty"`
	Form    map[string]string        `json:"form,omitempty"`
	Errors  service.ValidationErrors `json:"errors,omitempty"`
	Data    any                      `json:"data,omitempty"`
}

// renderPage writes m with the pending flashes attached.
func renderPage(w http.ResponseWriter, r *http.Request, cookies CookieConfig, code int, m pageModel) {
	m.Flashes = cookies.takeFlashes(w, r)
	if m.Flashes == nil {
		m.Flashes = []string{}
	}
	if actor := identityFromContext(r.Context()); actor != nil && m.User == nil {
		u := toUser(actor, true)
		m.User = &u
	}
	httpx.WriteJSON(w, code, m)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

// pageError answers a page request that failed for an unexpected reason.
func pageError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("page request failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "")
}

func userPath(username string) string {
	return "/user/" + url.PathEscape(username)
}

type identityCtxKey struct{}

func withIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	ctx = context.WithValue(ctx, identityCtxKey{}, identity)
	return httpx.WithUserID(ctx, identity.ID)
}

func identityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return identity
}

// boundIdentity resolves the session cookie, if any. Unknown or expired
// sessions are reported as nil without an error.
func boundIdentity(r *http.Request, sessions *service.SessionService, cookies CookieConfig) (*domain.Identity, error) {
	token := cookies.sessionToken(r)
	if token == "" {
		return nil, nil
	}
	_, identity, err := sessions.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

// requireLogin sends anonymous browsers to the login page, carrying the
// requested path in next.
func (r *Router) requireLogin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			identity, err := boundIdentity(req, r.SessionService, r.cookies)
			if err != nil {
				pageError(w, req, err)
				return
			}
			if identity == nil {
				r.denyAnonymous(req)
				if r.cookies.sessionToken(req) != "" {
					r.cookies.clearSession(w)
				}
				redirect(w, req, loginPath+"?next="+url.QueryEscape(req.URL.RequestURI()))
				return
			}

			ctx := slogx.With(withIdentity(req.Context(), identity), "user_id", identity.ID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
