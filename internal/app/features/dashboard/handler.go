// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/system/authz"
	"github.com/dalemusser/studyhub/internal/app/system/dashstate"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Dashboards *dashstate.Registry
	Log        *zap.Logger
}

func NewHandler(dashboards *dashstate.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Dashboards: dashboards,
		Log:        logger,
	}
}

// aggregator returns the signed-in user's aggregator, or writes 401.
func (h *Handler) aggregator(w http.ResponseWriter, r *http.Request) (*dashstate.Aggregator, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return nil, false
	}
	return h.Dashboards.Get(userID.Hex()), true
}

// ServeDashboard handles GET /dashboard. It runs one load cycle and returns
// the state that cycle published. A failed cycle still answers 200: the
// failure is carried in error_message with the previous counters. If the
// client leaves first, the cycle still completes for other subscribers.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, agg.Refresh(r.Context()))
}

// ServeState handles GET /dashboard/state: the last published state, no fetch.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, agg.Current())
}

// HandleRetry handles POST /dashboard/retry. The cycle runs in the
// background; the response carries the loading state it started with.
func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	agg.Retry()
	httpjson.Write(w, http.StatusAccepted, agg.Current())
}

// HandleClearError handles POST /dashboard/clear-error.
func (h *Handler) HandleClearError(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	agg.ClearError()
	httpjson.Write(w, http.StatusOK, agg.Current())
}
