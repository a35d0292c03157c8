package requeststore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/bloodhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateDisplayID is returned when the display id is already taken.
	ErrDuplicateDisplayID = errors.New("display id already in use")
	// ErrDonorProcessing is returned when the donor already holds another
	// request in "processing" (enforced by a partial unique index).
	ErrDonorProcessing = errors.New("donor already processing another request")
)

// Store persists donation requests. Every state change is a single
// conditional FindOneAndUpdate; when the precondition no longer holds the
// method returns mongo.ErrNoDocuments and the caller re-reads to classify.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donation_requests")}
}

// Expect is the state a transition requires the request to be in.
type Expect struct {
	Status string
	// ProcessingDonorID, when set, must match the stored processing donor.
	ProcessingDonorID *primitive.ObjectID
}

func (e Expect) filter(id primitive.ObjectID) bson.M {
	f := bson.M{"_id": id, "status": e.Status}
	if e.ProcessingDonorID != nil {
		f["processing_donor_id"] = *e.ProcessingDonorID
	}
	return f
}

// ExpectOf returns the Expect matching the current state of r.
func ExpectOf(r models.DonationRequest) Expect {
	return Expect{Status: r.Status, ProcessingDonorID: r.ProcessingDonorID}
}

// Create inserts a new pending request. DisplayID must already be set.
func (s *Store) Create(ctx context.Context, r models.DonationRequest) (models.DonationRequest, error) {
	r.ID = primitive.NewObjectID()
	r.Status = models.RequestPending
	r.ProcessingDonorID = nil
	r.FulfillingDonorID = nil
	r.FulfilledOn = nil
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if isDup(err) && strings.Contains(err.Error(), "display_id") {
			return models.DonationRequest{}, ErrDuplicateDisplayID
		}
		return models.DonationRequest{}, err
	}
	return r, nil
}

// GetByID loads a request. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DonationRequest, error) {
	var r models.DonationRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByDisplayID loads a request by its 10-digit display id.
func (s *Store) GetByDisplayID(ctx context.Context, displayID string) (*models.DonationRequest, error) {
	var r models.DonationRequest
	if err := s.c.FindOne(ctx, bson.M{"display_id": displayID}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ExistsDisplayID reports whether any request uses displayID.
func (s *Store) ExistsDisplayID(ctx context.Context, displayID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"display_id": displayID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindProcessingByDonor returns the request the donor is processing, or nil.
func (s *Store) FindProcessingByDonor(ctx context.Context, donorID primitive.ObjectID) (*models.DonationRequest, error) {
	var r models.DonationRequest
	err := s.c.FindOne(ctx, bson.M{"status": models.RequestProcessing, "processing_donor_id": donorID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkProcessing moves a pending request to processing by donorID.
func (s *Store) MarkProcessing(ctx context.Context, id, donorID, actorID primitive.ObjectID) (models.DonationRequest, error) {
	return s.transition(ctx, Expect{Status: models.RequestPending}.filter(id), bson.M{
		"$set": bson.M{
			"status":              models.RequestProcessing,
			"processing_donor_id": donorID,
			"updated_by_id":       actorID,
			"updated_at":          time.Now().UTC(),
		},
	})
}

// ReleaseProcessing returns a processing request held by donorID to pending.
func (s *Store) ReleaseProcessing(ctx context.Context, id, donorID, actorID primitive.ObjectID) (models.DonationRequest, error) {
	return s.transition(ctx, Expect{Status: models.RequestProcessing, ProcessingDonorID: &donorID}.filter(id), bson.M{
		"$set": bson.M{
			"status":        models.RequestPending,
			"updated_by_id": actorID,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"processing_donor_id": ""},
	})
}

// MarkFulfilled moves a request in state expect to fulfilled by donorID on day.
func (s *Store) MarkFulfilled(ctx context.Context, id primitive.ObjectID, expect Expect, donorID primitive.ObjectID, day time.Time, actorID primitive.ObjectID) (models.DonationRequest, error) {
	return s.transition(ctx, expect.filter(id), bson.M{
		"$set": bson.M{
			"status":              models.RequestFulfilled,
			"fulfilling_donor_id": donorID,
			"fulfilled_on":        day,
			"updated_by_id":       actorID,
			"updated_at":          time.Now().UTC(),
		},
		"$unset": bson.M{"processing_donor_id": ""},
	})
}

// ResetFulfilled returns a request fulfilled by donorID to pending and
// clears both donor references.
func (s *Store) ResetFulfilled(ctx context.Context, id, donorID, actorID primitive.ObjectID) (models.DonationRequest, error) {
	filter := bson.M{"_id": id, "status": models.RequestFulfilled, "fulfilling_donor_id": donorID}
	return s.transition(ctx, filter, bson.M{
		"$set": bson.M{
			"status":        models.RequestPending,
			"updated_by_id": actorID,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{
			"processing_donor_id": "",
			"fulfilling_donor_id": "",
			"fulfilled_on":        "",
		},
	})
}

// Close moves a request in state expect to a terminal status
// (cancelled or rejected).
func (s *Store) Close(ctx context.Context, id primitive.ObjectID, expect Expect, status string, actorID primitive.ObjectID) (models.DonationRequest, error) {
	return s.transition(ctx, expect.filter(id), bson.M{
		"$set": bson.M{
			"status":        status,
			"updated_by_id": actorID,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"processing_donor_id": ""},
	})
}

func (s *Store) transition(ctx context.Context, filter, update bson.M) (models.DonationRequest, error) {
	var out models.DonationRequest
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if isDup(err) {
			return models.DonationRequest{}, ErrDonorProcessing
		}
		return models.DonationRequest{}, err
	}
	return out, nil
}

// findAndModify reports duplicate keys as a command error rather than a
// write exception, so check both shapes.
func isDup(err error) bool {
	return wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err)
}
