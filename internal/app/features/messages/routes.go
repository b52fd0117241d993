// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// GroupRoutes serves a group's conversation. It expects to be mounted
// under a route that supplies the "id" URL parameter.
func GroupRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandlePost)
	})

	return r
}

// Routes serves /messages.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/read", h.HandleMarkRead)
	})

	return r
}
