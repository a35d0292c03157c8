// internal/app/features/requests/handler.go
package requests

import (
	"context"
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/services/requestflow"
	"github.com/dalemusser/bloodhub/internal/app/system/authz"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/displayid"
	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the donation request lifecycle over JSON.
type Handler struct {
	Svc *requestflow.Service
	Log *zap.Logger
}

// NewHandler constructs a requests Handler.
func NewHandler(svc *requestflow.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// requestView is a request as returned to clients, with dd/mm/yyyy dates.
type requestView struct {
	models.DonationRequest
	NeededOn    string `json:"needed_on,omitempty"`
	FulfilledOn string `json:"fulfilled_on,omitempty"`
}

func view(r models.DonationRequest) requestView {
	return requestView{
		DonationRequest: r,
		NeededOn:        dates.FormatPtr(r.NeededOn),
		FulfilledOn:     dates.FormatPtr(r.FulfilledOn),
	}
}

// donorBody is the body of claim and direct-fulfill.
type donorBody struct {
	DonorID string `json:"donor_id"`
}

// HandleCreate handles POST /requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		respond.Error(w, h.Log, faults.ErrSignInRequired)
		return
	}
	var in requestflow.CreateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create request")
	defer cancel()

	req, err := h.Svc.Create(ctx, actor, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, view(req))
}

// ServeRequest handles GET /requests/{id}. The id may be the ObjectID or the
// 10-digit display id.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get request")
	defer cancel()

	var (
		req models.DonationRequest
		err error
	)
	if displayid.Valid(id) {
		req, err = h.Svc.GetByDisplayID(ctx, id)
	} else {
		oid, perr := primitive.ObjectIDFromHex(id)
		if perr != nil {
			respond.Error(w, h.Log, faults.Validation("bad request id"))
			return
		}
		req, err = h.Svc.Get(ctx, oid)
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, view(req))
}

// HandleClaim handles POST /requests/{id}/claim. The donor defaults to the
// caller.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	h.withDonor(w, r, "claim request", true, h.Svc.Claim)
}

// HandleDirectFulfill handles POST /requests/{id}/direct-fulfill.
func (h *Handler) HandleDirectFulfill(w http.ResponseWriter, r *http.Request) {
	h.withDonor(w, r, "direct fulfill", false, h.Svc.DirectFulfill)
}

// HandleRelease handles POST /requests/{id}/release.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "release request", h.Svc.Release)
}

// HandleFulfill handles POST /requests/{id}/fulfill.
func (h *Handler) HandleFulfill(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "fulfill request", h.Svc.Fulfill)
}

// HandleReset handles POST /requests/{id}/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reset request", h.Svc.Reset)
}

// HandleCancel handles POST /requests/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel request", h.Svc.Cancel)
}

// HandleReject handles POST /requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject request", h.Svc.Reject)
}

type transitionFunc func(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error)

type donorFunc func(ctx context.Context, actor models.Actor, requestID, donorID primitive.ObjectID) (models.DonationRequest, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	actor, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	defer cancel()

	req, err := fn(ctx, actor, requestID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, view(req))
}

func (h *Handler) withDonor(w http.ResponseWriter, r *http.Request, op string, defaultSelf bool, fn donorFunc) {
	actor, requestID, ok := h.target(w, r)
	if !ok {
		return
	}
	var body donorBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	donorID := actor.ID
	if body.DonorID != "" || !defaultSelf {
		oid, err := primitive.ObjectIDFromHex(body.DonorID)
		if err != nil {
			respond.Error(w, h.Log, faults.Validation("donor_id must be a valid id"))
			return
		}
		donorID = oid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	defer cancel()

	req, err := fn(ctx, actor, requestID, donorID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, view(req))
}

// ServeHistory handles GET /requests/{id}/history.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "request history")
	defer cancel()

	events, err := h.Svc.History(ctx, actor, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, events)
}

// target reads the caller and the {id} path parameter, writing the error
// response itself when either is missing.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (models.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.Actor(r)
	if !ok {
		respond.Error(w, h.Log, faults.ErrSignInRequired)
		return models.Actor{}, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, faults.Validation("bad request id"))
		return models.Actor{}, primitive.NilObjectID, false
	}
	return actor, id, true
}
