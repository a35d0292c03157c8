// internal/app/features/requests/routes.go
package requests

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the request lifecycle under /requests. throttle wraps
// request creation.
func Routes(h *Handler, sm *auth.SessionManager, throttle func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.With(throttle).Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeRequest)
		pr.Get("/{id}/history", h.ServeHistory)

		// Lifecycle transitions
		pr.Post("/{id}/claim", h.HandleClaim)
		pr.Post("/{id}/release", h.HandleRelease)
		pr.Post("/{id}/fulfill", h.HandleFulfill)
		pr.Post("/{id}/direct-fulfill", h.HandleDirectFulfill)
		pr.Post("/{id}/cancel", h.HandleCancel)

		// Administrative
		pr.With(sm.RequireRole("admin", "superadmin")).Post("/{id}/reset", h.HandleReset)
		pr.With(sm.RequireRole("admin", "superadmin")).Post("/{id}/reject", h.HandleReject)
	})

	return r
}
