// internal/app/features/teams/managemembers.go
package teams

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberBody struct {
	UserID string `json:"user_id"`
}

type slotBody struct {
	Slot   string `json:"slot"`
	UserID string `json:"user_id"`
}

type childBody struct {
	ChildID string `json:"child_id"`
}

func (h *Handler) bodyID(w http.ResponseWriter, raw, field string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respond.Error(w, h.Log, faults.Validation(field+" must be a valid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleAddMember handles POST /teams/{id}/members.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	teamID, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	var body memberBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, ok := h.bodyID(w, body.UserID, "user_id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add team member")
	defer cancel()

	team, err := h.Svc.AddMember(ctx, actor, teamID, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}

// HandleRemoveMember handles DELETE /teams/{id}/members/{userID}. It frees a
// slot as well as a plain membership.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	teamID, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID", "user")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove team member")
	defer cancel()

	team, err := h.Svc.RemoveMember(ctx, actor, teamID, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}

// HandleAssignSlot handles POST /teams/{id}/slots.
func (h *Handler) HandleAssignSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	teamID, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	var body slotBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if body.Slot == "" {
		respond.Error(w, h.Log, faults.Validation("slot is required"))
		return
	}
	userID, ok := h.bodyID(w, body.UserID, "user_id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "assign team slot")
	defer cancel()

	team, err := h.Svc.AssignSlot(ctx, actor, teamID, body.Slot, userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}

// HandleAttachChild handles POST /teams/{id}/children.
func (h *Handler) HandleAttachChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	parentID, ok := h.pathID(w, r, "id", "team")
	if !ok {
		return
	}
	var body childBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	childID, ok := h.bodyID(w, body.ChildID, "child_id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "attach child team")
	defer cancel()

	team, err := h.Svc.AttachChild(ctx, actor, parentID, childID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, team)
}
