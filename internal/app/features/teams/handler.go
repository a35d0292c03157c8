// internal/app/features/teams/handler.go
package teams

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/services/hierarchy"
	"github.com/dalemusser/bloodhub/internal/app/system/authz"
	"github.com/dalemusser/bloodhub/internal/app/system/paging"
	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the volunteer hierarchy over JSON.
type Handler struct {
	Svc *hierarchy.Service
	Log *zap.Logger
}

// NewHandler constructs a teams Handler.
func NewHandler(svc *hierarchy.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// caller returns the session actor, writing the error response itself when
// there is none.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := authz.Actor(r)
	if !ok {
		respond.Error(w, h.Log, faults.ErrSignInRequired)
	}
	return actor, ok
}

// pathID parses the chi URL parameter key as an ObjectID.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, key, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		respond.Error(w, h.Log, faults.Validation("bad "+what+" id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeTeam handles GET /teams/{id}.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get team")
	defer cancel()

	team, err := h.Svc.Get(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}

// ServeList handles GET /teams?level=...&after=...|before=...
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	before, after := paging.Cursors(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teams")
	defer cancel()

	page, err := h.Svc.ListByLevel(ctx, r.URL.Query().Get("level"), before, after)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, page)
}
