package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/observability"
	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"

	_ "github.com/aussiebroadwan/murmur/api/murmur" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       httpx.RateLimits
	cookies      CookieConfig

	store   store.Store
	metrics *observability.Metrics

	CredentialService *service.CredentialService
	SessionService    *service.SessionService
	TokenService      *service.APITokenService
	UserService       *service.UserService
	FollowService     *service.FollowService
	ResetService      *service.ResetService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	metrics *observability.Metrics,
	limits httpx.RateLimits,
	cookies CookieConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		limits:       limits,
		cookies:      cookies.withDefaults(),
		store:        st,
		metrics:      metrics,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuthPages()
	r.registerUserPages()
	r.registerTokens()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						murmur API
//	@version					0.1.0
//	@description				Identity, session and API token service of the murmur microblog.
//	@description
//	@description				API tokens are opaque bearer tokens obtained from POST /api/tokens with HTTP Basic credentials.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/murmur
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.basic	BasicAuth
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				API token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuthPages() {
	h := &AuthPages{
		Sessions: r.SessionService,
		Users:    r.UserService,
		Resets:   r.ResetService,
		Cookies:  r.cookies,
	}

	r.Mux.HandleFunc("GET /auth/login", h.HandleLoginPage)
	// POST /auth/login - strict rate limit by IP + username to slow down guessing
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(r.limits.Strict, "username"),
		),
	)
	r.Mux.HandleFunc("GET /auth/logout", h.HandleLogout)

	r.Mux.HandleFunc("GET /auth/register", h.HandleRegisterPage)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	r.Mux.HandleFunc("GET /auth/reset_password_request", h.HandleResetRequestPage)
	// POST /auth/reset_password_request - strict by IP + email, every hit may send mail
	r.Mux.Handle("POST /auth/reset_password_request",
		httpx.Chain(http.HandlerFunc(h.HandleResetRequest),
			httpx.RateLimitByIPAndFormField(r.limits.Strict, "email"),
		),
	)

	r.Mux.HandleFunc("GET /auth/reset_password/{token}", h.HandleResetPage)
	r.Mux.Handle("POST /auth/reset_password/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerUserPages() {
	h := &UserPages{
		Users:   r.UserService,
		Follows: r.FollowService,
		Cookies: r.cookies,
	}
	login := r.requireLogin()

	r.Mux.Handle("GET /{$}", httpx.Chain(http.HandlerFunc(h.HandleIndex), login))
	r.Mux.Handle("GET /index", httpx.Chain(http.HandlerFunc(h.HandleIndex), login))
	r.Mux.Handle("GET /user/{username}", httpx.Chain(http.HandlerFunc(h.HandleProfile), login))
	r.Mux.Handle("GET /edit_profile", httpx.Chain(http.HandlerFunc(h.HandleEditProfilePage), login))
	r.Mux.Handle("POST /edit_profile",
		httpx.Chain(http.HandlerFunc(h.HandleEditProfile),
			login,
			httpx.RateLimitByUser(r.limits.Moderate),
		),
	)
	r.Mux.Handle("POST /follow/{username}",
		httpx.Chain(http.HandlerFunc(h.HandleFollow),
			login,
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
	r.Mux.Handle("POST /unfollow/{username}",
		httpx.Chain(http.HandlerFunc(h.HandleUnfollow),
			login,
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{TokenService: r.TokenService}

	// POST /api/tokens - strict rate limit by IP + username (password check)
	r.Mux.Handle("POST /api/tokens",
		httpx.Chain(http.HandlerFunc(h.HandleIssue),
			httpx.RateLimitByIPAndBasicUser(r.limits.Strict),
			httpx.BasicAuth(basicVerifier{r.CredentialService}, "murmur"),
		),
	)

	r.Mux.Handle("DELETE /api/tokens",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			r.bearerAuth(),
			httpx.RateLimitByUser(r.limits.Moderate),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		Users:   r.UserService,
		Follows: r.FollowService,
	}

	// POST /api/users - public signup, moderate rate limit by IP
	r.Mux.Handle("POST /api/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.bearerAuth(),
			httpx.RateLimitByUser(r.limits.Lenient),
		)
	}

	r.Mux.Handle("GET /api/users", secured(h.HandleList))
	r.Mux.Handle("GET /api/users/{id}", secured(h.HandleGet))
	r.Mux.Handle("GET /api/users/{id}/followers", secured(h.HandleFollowers))
	r.Mux.Handle("GET /api/users/{id}/following", secured(h.HandleFollowing))
	r.Mux.Handle("PUT /api/users/{id}", secured(h.HandleUpdate))
}

// bearerAuth gates the API on a valid token. Refusals are recorded by the
// guard as unauthenticated attempts.
func (r *Router) bearerAuth() httpx.Middleware {
	return httpx.BearerAuth(bearerVerifier{r.TokenService}, httpx.WithRejectHook(r.denyAnonymous))
}

func (r *Router) guard() *service.Guard {
	if r.UserService == nil {
		return nil
	}
	return r.UserService.Guard
}

// denyAnonymous runs the guard for a request that carries no identity, so
// the refusal is counted like any other authorization denial.
func (r *Router) denyAnonymous(req *http.Request) {
	action := service.ActionMutate
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		action = service.ActionRead
	}
	_ = r.guard().Authorize(nil, action, nil)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{StartTime: r.startTime, Version: r.buildVersion, Store: r.store}

	r.Mux.HandleFunc("GET /livez", h.HandleLivez)
	r.Mux.HandleFunc("GET /readyz", h.HandleReadyz)
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
