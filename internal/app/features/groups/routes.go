// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /groups. Group messages are mounted onto the returned
// router by the caller at "/{id}/messages".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/members", h.HandleAddMember)
	})

	return r
}
