// internal/app/features/donors/routes.go
package donors

import (
	"github.com/dalemusser/bloodhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts donor lookups under /donors.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{id}/eligibility", h.ServeEligibility)
	})
	return r
}
