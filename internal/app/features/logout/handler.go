// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/dashstate"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Dashboards *dashstate.Registry
}

func NewHandler(sessionMgr *auth.SessionManager, dashboards *dashstate.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Dashboards: dashboards,
	}
}

// HandleLogout handles POST /logout. It expires the cookie and drops the
// user's dashboard session unless another device is streaming it. Bearer
// tokens stay valid until they expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if u, ok := auth.CurrentUser(r); ok && h.Dashboards != nil {
		h.Dashboards.Release(u.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}
