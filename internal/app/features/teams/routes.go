// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/bloodhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the hierarchy under /teams. Level permissions are checked by
// the service, so routes only require a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST / VIEW
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeTeam)

		// CREATE / EDIT / DELETE
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		// MEMBERS AND SLOTS
		pr.Post("/{id}/members", h.HandleAddMember)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)
		pr.Post("/{id}/slots", h.HandleAssignSlot)

		// CHILD TEAMS
		pr.Post("/{id}/children", h.HandleAttachChild)
	})

	return r
}
