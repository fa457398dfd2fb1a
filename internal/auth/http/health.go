package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// HealthHandler answers the liveness and readiness probes.
type HealthHandler struct {
	StartTime time.Time
	Version   string
	Store     store.Store
}

func (h *HealthHandler) report(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
		Version: h.Version,
		Checks:  checks,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests. The store is not consulted.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, h.report("ok", nil))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the identity store. Answers 503 with status "degraded" while it is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)

	// The cause stays in the log; probes only learn that the store is down.
	if err := h.Store.Ping(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Warn("readiness ping failed", "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable,
			h.report("degraded", &authsdk.HealthChecks{Database: "error"}))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.report("ok", &authsdk.HealthChecks{Database: "ok"}))
}
