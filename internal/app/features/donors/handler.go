// internal/app/features/donors/handler.go
package donors

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/services/requestflow"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves donor eligibility lookups.
type Handler struct {
	Svc *requestflow.Service
	Log *zap.Logger
}

// NewHandler constructs a donors Handler.
func NewHandler(svc *requestflow.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// eligibilityView is the donor's standing as of today.
type eligibilityView struct {
	DonorID          string `json:"donor_id"`
	FullName         string `json:"full_name"`
	BloodGroup       string `json:"blood_group,omitempty"`
	Eligible         bool   `json:"eligible"`
	Reason           string `json:"reason,omitempty"`
	LastDonationDate string `json:"last_donation_date,omitempty"`
	NextEligibleDate string `json:"next_eligible_date,omitempty"`
	Busy             bool   `json:"busy"`
}

// ServeEligibility handles GET /donors/{id}/eligibility.
func (h *Handler) ServeEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, faults.Validation("bad donor id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "donor eligibility")
	defer cancel()

	donor, res, err := h.Svc.Eligibility(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	respond.OK(w, eligibilityView{
		DonorID:          donor.ID.Hex(),
		FullName:         donor.FullName,
		BloodGroup:       donor.BloodGroup,
		Eligible:         res.Eligible,
		Reason:           res.Reason,
		LastDonationDate: dates.FormatPtr(donor.LastDonationAt),
		NextEligibleDate: dates.FormatPtr(res.NextEligibleOn),
		Busy:             donor.ProcessingRequestID != nil,
	})
}
