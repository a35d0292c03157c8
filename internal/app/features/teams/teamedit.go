// internal/app/features/teams/teamedit.go
package teams

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/services/hierarchy"
	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleCreate handles POST /teams.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	var in hierarchy.TeamInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create team")
	defer cancel()

	team, err := h.Svc.CreateTeam(ctx, actor, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, team)
}

// HandleUpdate handles PUT /teams/{id}. The body replaces name, area, slots
// and members.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	var in hierarchy.UpdateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update team")
	defer cancel()

	team, err := h.Svc.UpdateTeam(ctx, actor, id, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}

// HandleDelete handles DELETE /teams/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete team")
	defer cancel()

	if err := h.Svc.DeleteTeam(ctx, actor, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("team deleted", zap.String("team_id", id.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.OK(w, map[string]string{"id": id.Hex()})
}
