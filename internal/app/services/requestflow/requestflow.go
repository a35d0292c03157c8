// Package requestflow runs the donation request lifecycle:
//
//	pending -> processing -> fulfilled -> (reset) -> pending
//	pending/processing -> cancelled | rejected
//
// Every transition is a conditional write on the request document. Donor
// exclusivity is held by the donor's processing marker, reserved before the
// request moves and released (or consumed by the donation write) after.
// When a step fails after the marker was taken, the marker is returned.
package requestflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/services/donorrecord"
	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	requeststore "github.com/dalemusser/bloodhub/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/displayid"
	"github.com/dalemusser/bloodhub/internal/app/system/eligibility"
	"github.com/dalemusser/bloodhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodhub/internal/app/system/inputval"
	"github.com/dalemusser/bloodhub/internal/app/system/retry"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// createAttempts bounds the inserts retried after a display id lost the
// race to the unique index.
const createAttempts = 3

// historyLimit caps the events returned by History.
const historyLimit = 100

// Options tunes a Service.
type Options struct {
	// DisplayIDAttempts bounds collision retries per generated id.
	DisplayIDAttempts int
	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// Service is the request lifecycle engine.
type Service struct {
	requests *requeststore.Store
	users    *userstore.Store
	donors   *donorrecord.Updater
	ids      *displayid.Generator
	audit    *auditlog.Logger
	history  *audit.Store
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Service over db. auditLog may be nil.
func New(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	requests := requeststore.New(db)
	return &Service{
		requests: requests,
		users:    userstore.New(db),
		donors:   donorrecord.New(db),
		ids:      displayid.New(requests, opts.DisplayIDAttempts),
		audit:    auditLog,
		history:  audit.New(db),
		log:      logger,
		now:      now,
	}
}

// IDs exposes the display id generator so tests can pin its source.
func (s *Service) IDs() *displayid.Generator { return s.ids }

// CreateInput is the payload for a new request.
type CreateInput struct {
	BloodGroup      string `json:"blood_group" validate:"required,bloodgroup" label:"Blood group"`
	UnitsNeeded     int    `json:"units_needed" validate:"min=1,max=20" label:"Units needed"`
	HospitalName    string `json:"hospital_name" validate:"required,max=200" label:"Hospital name"`
	District        string `json:"district" validate:"required,max=100" label:"District"`
	Upazila         string `json:"upazila" validate:"required,max=100" label:"Upazila"`
	ContactNumber   string `json:"contact_number" validate:"required,phone" label:"Contact number"`
	ContactRelation string `json:"contact_relation" validate:"max=60" label:"Contact relation"`
	Description     string `json:"description" validate:"max=2000" label:"Description"`
	NeededOn        string `json:"needed_on" validate:"omitempty,ddmmyyyy" label:"Needed on"`
	VolunteerID     string `json:"volunteer_id" validate:"omitempty,objectid" label:"Volunteer"`
}

// Create validates in and stores a new pending request owned by the actor.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.DonationRequest, error) {
	if actor.ID.IsZero() {
		return models.DonationRequest{}, faults.Validation("requester is required")
	}
	if res := inputval.Validate(in); res.HasErrors() {
		return models.DonationRequest{}, faults.Validation(res.First())
	}
	neededOn, err := dates.ParseOptional(in.NeededOn)
	if err != nil {
		return models.DonationRequest{}, faults.Validation(err.Error())
	}

	req := models.DonationRequest{
		BloodGroup:      in.BloodGroup,
		UnitsNeeded:     in.UnitsNeeded,
		HospitalName:    htmlsanitize.PlainText(in.HospitalName),
		District:        htmlsanitize.PlainText(in.District),
		Upazila:         htmlsanitize.PlainText(in.Upazila),
		ContactNumber:   in.ContactNumber,
		ContactRelation: htmlsanitize.PlainText(in.ContactRelation),
		Description:     htmlsanitize.PlainText(in.Description),
		NeededOn:        neededOn,
		RequesterID:     actor.ID,
		UpdatedByID:     actor.ID,
	}
	if in.VolunteerID != "" {
		vid, _ := primitive.ObjectIDFromHex(in.VolunteerID)
		req.VolunteerID = &vid
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		id, err := s.ids.Generate(ctx)
		if err != nil {
			return models.DonationRequest{}, err
		}
		req.DisplayID = id

		created, err := s.requests.Create(ctx, req)
		if errors.Is(err, requeststore.ErrDuplicateDisplayID) {
			s.log.Debug("display id taken at insert, retrying", zap.String("display_id", id))
			continue
		}
		if err != nil {
			return models.DonationRequest{}, fmt.Errorf("create request: %w", err)
		}

		s.log.Info("request created",
			zap.String("request_id", created.ID.Hex()),
			zap.String("display_id", created.DisplayID),
			zap.String("requester_id", actor.ID.Hex()))
		s.audit.RequestEvent(ctx, audit.EventRequestCreated, actor.ID, created, nil, nil)
		return created, nil
	}
	return models.DonationRequest{}, faults.ErrIDSpaceExhausted
}

// Get loads a request.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.DonationRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return models.DonationRequest{}, err
	}
	return *req, nil
}

// GetByDisplayID loads a request by its 10-digit display id.
func (s *Service) GetByDisplayID(ctx context.Context, displayID string) (models.DonationRequest, error) {
	if !displayid.Valid(displayID) {
		return models.DonationRequest{}, faults.Validation("request id must be 10 digits")
	}
	req, err := s.requests.GetByDisplayID(ctx, displayID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonationRequest{}, faults.NotFound("request")
	}
	if err != nil {
		return models.DonationRequest{}, fmt.Errorf("load request: %w", err)
	}
	return *req, nil
}

// History returns the audit events about a request, newest first. Only the
// request's participants and admins may read it.
func (s *Service) History(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) ([]audit.Event, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canFulfill(actor, *req) {
		return nil, faults.ErrNotParticipant
	}
	events, err := s.history.ForEntity(ctx, req.ID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load request history: %w", err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}

// Eligibility evaluates a donor as of now.
func (s *Service) Eligibility(ctx context.Context, donorID primitive.ObjectID) (*models.User, eligibility.Result, error) {
	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return nil, eligibility.Result{}, err
	}
	return donor, eligibility.Evaluate(donor, s.now()), nil
}

// Claim moves a pending request to processing by donorID.
func (s *Service) Claim(ctx context.Context, actor models.Actor, requestID, donorID primitive.ObjectID) (models.DonationRequest, error) {
	if donorID.IsZero() {
		return models.DonationRequest{}, faults.Validation("donor is required")
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if req.Status != models.RequestPending {
		return models.DonationRequest{}, invalidState(req.Status)
	}
	if donorID == req.RequesterID {
		return models.DonationRequest{}, faults.ErrSelfFulfillment
	}

	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	now := s.now()
	if err := checkEligible(donor, now); err != nil {
		return models.DonationRequest{}, err
	}
	if err := s.reserve(ctx, donor, req.ID, now); err != nil {
		return models.DonationRequest{}, err
	}

	updated, err := s.requests.MarkProcessing(ctx, req.ID, donorID, actor.ID)
	if err != nil {
		s.undoReserve(ctx, donorID, req.ID)
		switch {
		case errors.Is(err, requeststore.ErrDonorProcessing):
			return models.DonationRequest{}, faults.ErrDonorBusy
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.DonationRequest{}, s.classify(ctx, *req)
		}
		return models.DonationRequest{}, fmt.Errorf("claim request: %w", err)
	}

	s.log.Info("request claimed",
		zap.String("display_id", updated.DisplayID),
		zap.String("donor_id", donorID.Hex()))
	s.audit.RequestEvent(ctx, audit.EventRequestClaimed, actor.ID, updated, &donorID, nil)
	return updated, nil
}

// Release returns a processing request to pending. Only the processing donor
// or an admin may release.
func (s *Service) Release(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if req.Status != models.RequestProcessing || req.ProcessingDonorID == nil {
		return models.DonationRequest{}, invalidState(req.Status)
	}
	donorID := *req.ProcessingDonorID
	if actor.ID != donorID && !actor.IsAdmin() {
		return models.DonationRequest{}, faults.ErrNotProcessor
	}

	updated, err := s.requests.ReleaseProcessing(ctx, req.ID, donorID, actor.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonationRequest{}, s.classify(ctx, *req)
	}
	if err != nil {
		return models.DonationRequest{}, fmt.Errorf("release request: %w", err)
	}
	s.releaseDonor(ctx, donorID, req.ID)

	s.log.Info("request released",
		zap.String("display_id", updated.DisplayID),
		zap.String("donor_id", donorID.Hex()))
	s.audit.RequestEvent(ctx, audit.EventRequestReleased, actor.ID, updated, &donorID, nil)
	return updated, nil
}

// Fulfill completes a processing request with its processing donor and
// records the donation on the donor.
func (s *Service) Fulfill(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if req.Status == models.RequestFulfilled {
		return models.DonationRequest{}, faults.ErrAlreadyFulfilled
	}
	if req.Status != models.RequestProcessing || req.ProcessingDonorID == nil {
		return models.DonationRequest{}, invalidState(req.Status)
	}
	if !canFulfill(actor, *req) {
		return models.DonationRequest{}, faults.ErrNotParticipant
	}
	donorID := *req.ProcessingDonorID

	// The cooldown was checked at claim; ban and approval can change since.
	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if donor.IsBanned {
		return models.DonationRequest{}, faults.ErrIneligible.WithMessage(eligibility.ReasonBanned)
	}
	if !donor.IsApproved {
		return models.DonationRequest{}, faults.ErrIneligible.WithMessage(eligibility.ReasonNotApproved)
	}

	day := dates.Day(s.now())
	updated, err := s.requests.MarkFulfilled(ctx, req.ID, requeststore.ExpectOf(*req), donorID, day, actor.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonationRequest{}, s.classify(ctx, *req)
	}
	if err != nil {
		return models.DonationRequest{}, fmt.Errorf("fulfill request: %w", err)
	}
	s.recordDonation(ctx, donorID, updated, day)

	s.log.Info("request fulfilled",
		zap.String("display_id", updated.DisplayID),
		zap.String("donor_id", donorID.Hex()))
	s.audit.RequestEvent(ctx, audit.EventRequestFulfilled, actor.ID, updated, &donorID, nil)
	return updated, nil
}

// DirectFulfill completes a pending or processing request with donorID in a
// single step. A different donor that was processing the request is released.
func (s *Service) DirectFulfill(ctx context.Context, actor models.Actor, requestID, donorID primitive.ObjectID) (models.DonationRequest, error) {
	if donorID.IsZero() {
		return models.DonationRequest{}, faults.Validation("donor is required")
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if req.Status == models.RequestFulfilled {
		return models.DonationRequest{}, faults.ErrAlreadyFulfilled
	}
	if req.Status != models.RequestPending && req.Status != models.RequestProcessing {
		return models.DonationRequest{}, invalidState(req.Status)
	}
	if donorID == req.RequesterID {
		return models.DonationRequest{}, faults.ErrSelfFulfillment
	}
	if !canFulfill(actor, *req) {
		return models.DonationRequest{}, faults.ErrNotParticipant
	}

	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	now := s.now()
	if err := checkEligible(donor, now); err != nil {
		return models.DonationRequest{}, err
	}

	previous := req.ProcessingDonorID
	holdsRequest := previous != nil && *previous == donorID
	if !holdsRequest {
		if err := s.reserve(ctx, donor, req.ID, now); err != nil {
			return models.DonationRequest{}, err
		}
		other, err := s.requests.FindProcessingByDonor(ctx, donorID)
		if err != nil {
			s.undoReserve(ctx, donorID, req.ID)
			return models.DonationRequest{}, fmt.Errorf("direct fulfill: %w", err)
		}
		if other != nil && other.ID != req.ID {
			s.undoReserve(ctx, donorID, req.ID)
			return models.DonationRequest{}, faults.ErrDonorBusy.WithRef(other.DisplayID)
		}
	}

	day := dates.Day(now)
	updated, err := s.requests.MarkFulfilled(ctx, req.ID, requeststore.ExpectOf(*req), donorID, day, actor.ID)
	if err != nil {
		if !holdsRequest {
			s.undoReserve(ctx, donorID, req.ID)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DonationRequest{}, s.classify(ctx, *req)
		}
		return models.DonationRequest{}, fmt.Errorf("direct fulfill: %w", err)
	}
	s.recordDonation(ctx, donorID, updated, day)
	if previous != nil && !holdsRequest {
		s.releaseDonor(ctx, *previous, req.ID)
	}

	details := map[string]string{}
	if previous != nil && !holdsRequest {
		details["released_donor_id"] = previous.Hex()
	}
	s.log.Info("request fulfilled directly",
		zap.String("display_id", updated.DisplayID),
		zap.String("donor_id", donorID.Hex()))
	s.audit.RequestEvent(ctx, audit.EventRequestDirectFulfilled, actor.ID, updated, &donorID, details)
	return updated, nil
}

// Reset undoes a fulfillment: the request returns to pending and, unless the
// donor has donated again since, the donor becomes eligible again.
func (s *Service) Reset(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error) {
	if !actor.IsAdmin() {
		return models.DonationRequest{}, faults.ErrAdminOnly
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if req.Status != models.RequestFulfilled || req.FulfillingDonorID == nil {
		return models.DonationRequest{}, faults.ErrNotFulfilled
	}
	donorID := *req.FulfillingDonorID

	updated, err := s.requests.ResetFulfilled(ctx, req.ID, donorID, actor.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, lerr := s.load(ctx, req.ID)
		if lerr != nil {
			return models.DonationRequest{}, lerr
		}
		if cur.Status != models.RequestFulfilled {
			return models.DonationRequest{}, faults.ErrNotFulfilled
		}
		return models.DonationRequest{}, faults.ErrRaceLost
	}
	if err != nil {
		return models.DonationRequest{}, fmt.Errorf("reset request: %w", err)
	}

	rewound, err := s.donors.RewindDonation(ctx, donorID, s.now(), req.FulfilledOn)
	switch {
	case err != nil:
		s.log.Error("request reset but donor record not rewound",
			zap.String("display_id", updated.DisplayID),
			zap.String("donor_id", donorID.Hex()),
			zap.Error(err))
	case !rewound:
		s.log.Warn("donor donated again after this request; donor record left unchanged",
			zap.String("display_id", updated.DisplayID),
			zap.String("donor_id", donorID.Hex()))
	}

	s.log.Info("request reset",
		zap.String("display_id", updated.DisplayID),
		zap.String("donor_id", donorID.Hex()))
	s.audit.RequestEvent(ctx, audit.EventRequestReset, actor.ID, updated, &donorID,
		map[string]string{"donor_rewound": fmt.Sprint(rewound)})
	return updated, nil
}

// Cancel closes a request on behalf of its requester or an admin.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error) {
	return s.close(ctx, actor, requestID, models.RequestCancelled)
}

// Reject closes a request as an admin decision.
func (s *Service) Reject(ctx context.Context, actor models.Actor, requestID primitive.ObjectID) (models.DonationRequest, error) {
	if !actor.IsAdmin() {
		return models.DonationRequest{}, faults.ErrAdminOnly
	}
	return s.close(ctx, actor, requestID, models.RequestRejected)
}

func (s *Service) close(ctx context.Context, actor models.Actor, requestID primitive.ObjectID, status string) (models.DonationRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return models.DonationRequest{}, err
	}
	if status == models.RequestCancelled && actor.ID != req.RequesterID && !actor.IsAdmin() {
		return models.DonationRequest{}, faults.ErrNotParticipant
	}
	if req.Status != models.RequestPending && req.Status != models.RequestProcessing {
		return models.DonationRequest{}, invalidState(req.Status)
	}

	updated, err := s.requests.Close(ctx, req.ID, requeststore.ExpectOf(*req), status, actor.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonationRequest{}, s.classify(ctx, *req)
	}
	if err != nil {
		return models.DonationRequest{}, fmt.Errorf("close request: %w", err)
	}
	if req.ProcessingDonorID != nil {
		s.releaseDonor(ctx, *req.ProcessingDonorID, req.ID)
	}

	event := audit.EventRequestCancelled
	if status == models.RequestRejected {
		event = audit.EventRequestRejected
	}
	s.log.Info("request closed",
		zap.String("display_id", updated.DisplayID),
		zap.String("status", status))
	s.audit.RequestEvent(ctx, event, actor.ID, updated, req.ProcessingDonorID, nil)
	return updated, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.DonationRequest, error) {
	var req *models.DonationRequest
	err := retry.Do(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetByID(ctx, id)
		req = r
		return err
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, faults.NotFound("request")
	}
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}

func (s *Service) loadDonor(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var donor *models.User
	err := retry.Do(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, id)
		donor = u
		return err
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, faults.NotFound("donor")
	}
	if err != nil {
		return nil, fmt.Errorf("load donor: %w", err)
	}
	return donor, nil
}

// reserve takes the donor's processing marker for requestID, classifying a
// refused write from a fresh read of the donor.
func (s *Service) reserve(ctx context.Context, donor *models.User, requestID primitive.ObjectID, now time.Time) error {
	if donor.ProcessingRequestID != nil && *donor.ProcessingRequestID != requestID {
		return faults.ErrDonorBusy
	}
	ok, err := s.users.ReserveDonor(ctx, donor.ID, requestID, now)
	if err != nil {
		return fmt.Errorf("reserve donor: %w", err)
	}
	if ok {
		return nil
	}

	fresh, err := s.loadDonor(ctx, donor.ID)
	if err != nil {
		return err
	}
	if fresh.ProcessingRequestID != nil && *fresh.ProcessingRequestID != requestID {
		return faults.ErrDonorBusy
	}
	if err := checkEligible(fresh, now); err != nil {
		return err
	}
	return faults.ErrRaceLost
}

// undoReserve returns a marker taken by a step that then failed. The marker
// stays when a concurrent call for the same donor and request already moved
// the request into processing.
func (s *Service) undoReserve(ctx context.Context, donorID, requestID primitive.ObjectID) {
	if cur, err := s.requests.GetByID(ctx, requestID); err == nil {
		if cur.Status == models.RequestProcessing && cur.ProcessingDonorID != nil && *cur.ProcessingDonorID == donorID {
			return
		}
	}
	s.releaseDonor(ctx, donorID, requestID)
}

// releaseDonor clears the marker. Failures are logged; the reconciler frees
// markers whose request no longer needs them.
func (s *Service) releaseDonor(ctx context.Context, donorID, requestID primitive.ObjectID) {
	err := retry.Do(ctx, func(ctx context.Context) error {
		_, err := s.users.ReleaseDonor(ctx, donorID, requestID)
		return err
	})
	if err != nil {
		s.log.Error("failed to release donor marker",
			zap.String("donor_id", donorID.Hex()),
			zap.String("request_id", requestID.Hex()),
			zap.Error(err))
	}
}

// recordDonation applies the fulfillment side effect. The request is already
// fulfilled, so a failure here is logged rather than returned; the reconciler
// repairs donors whose marker still points at a fulfilled request.
func (s *Service) recordDonation(ctx context.Context, donorID primitive.ObjectID, req models.DonationRequest, day time.Time) {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return s.donors.RecordDonation(ctx, donorID, req.ID, day)
	})
	if err != nil {
		s.log.Error("request fulfilled but donation dates not recorded",
			zap.String("display_id", req.DisplayID),
			zap.String("donor_id", donorID.Hex()),
			zap.Error(err))
	}
}

// classify explains why a conditional write on prev matched nothing.
func (s *Service) classify(ctx context.Context, prev models.DonationRequest) error {
	cur, err := s.load(ctx, prev.ID)
	if err != nil {
		return err
	}
	if cur.Status == models.RequestFulfilled && prev.Status != models.RequestFulfilled {
		return faults.ErrAlreadyFulfilled
	}
	if cur.Status != prev.Status {
		return invalidState(cur.Status)
	}
	return faults.ErrRaceLost
}

func checkEligible(donor *models.User, now time.Time) error {
	if res := eligibility.Evaluate(donor, now); !res.Eligible {
		return faults.ErrIneligible.WithMessage(res.Reason)
	}
	return nil
}

func canFulfill(actor models.Actor, req models.DonationRequest) bool {
	switch {
	case actor.IsAdmin(), actor.ID == req.RequesterID:
		return true
	case req.VolunteerID != nil && *req.VolunteerID == actor.ID:
		return true
	case req.ProcessingDonorID != nil && *req.ProcessingDonorID == actor.ID:
		return true
	}
	return false
}

func invalidState(status string) error {
	return faults.ErrInvalidState.WithMessage("request is " + status)
}
