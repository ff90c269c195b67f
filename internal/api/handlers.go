package api

import (
	"net/http"
	"time"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/gatekeeper"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/httputil"
	"github.com/flipflow/flipflow/internal/store"
)

// Handlers carries every dependency the HTTP layer needs.
type Handlers struct {
	cfg   *config.Config
	store store.Store
	gw    gateway.Gateway
	coord *engine.Coordinator

	titles *gatekeeper.TitleSanitizer
	mobile *gatekeeper.MobileEnforcer
	profit *gatekeeper.ProfitFloor
	str    *gatekeeper.STREnforcer

	started time.Time
}

// NewHandlers builds the handler set.
func NewHandlers(cfg *config.Config, st store.Store, gw gateway.Gateway, coord *engine.Coordinator) *Handlers {
	return &Handlers{
		cfg:     cfg,
		store:   st,
		gw:      gw,
		coord:   coord,
		titles:  gatekeeper.NewTitleSanitizer(),
		mobile:  gatekeeper.NewMobileEnforcer(),
		profit:  gatekeeper.NewProfitFloor(cfg.Fees),
		str:     gatekeeper.NewSTREnforcer(),
		started: time.Now(),
	}
}

// HealthCheck reports process liveness and the gateway mode.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"ebay_mode":      h.cfg.Ebay.Mode,
	})
}

// RecentJobs lists the latest coordinator runs.
func (h *Handlers) RecentJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	jobs, err := h.coord.RecentJobs(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"jobs": jobs, "count": len(jobs)})
}
