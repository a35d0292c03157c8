package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/eligibility"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUser is returned when an insert collides with an existing _id.
var ErrDuplicateUser = errors.New("user already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany loads the users with the given ids, keyed by id. Missing ids are
// simply absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Create inserts a user. Account management lives in another service; this
// exists for seeding and tests.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.FullNameCI = text.Fold(u.FullName)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Donor exclusivity marker                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ReserveDonor atomically sets the donor's processing marker to requestID.
// The write only lands when the marker is unset (or already requestID) and
// the donor is eligible at now. Returns false when either condition fails.
func (s *Store) ReserveDonor(ctx context.Context, donorID, requestID primitive.ObjectID, now time.Time) (bool, error) {
	filter := eligibility.Filter(now)
	filter["_id"] = donorID
	filter["processing_request_id"] = bson.M{"$in": bson.A{nil, requestID}}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"processing_request_id":  requestID,
		"processing_reserved_at": now.UTC(),
		"updated_at":             now.UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ReleaseDonor clears the processing marker if it still points at requestID.
// Returns false when the marker was already cleared or belongs to another
// request.
func (s *Store) ReleaseDonor(ctx context.Context, donorID, requestID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": donorID, "processing_request_id": requestID},
		bson.M{
			"$unset": bson.M{"processing_request_id": "", "processing_reserved_at": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Reservation is an outstanding processing marker.
type Reservation struct {
	UserID     primitive.ObjectID `bson:"_id"`
	RequestID  primitive.ObjectID `bson:"processing_request_id"`
	ReservedAt *time.Time         `bson:"processing_reserved_at,omitempty"`
}

// ListReservations returns markers set before olderThan.
func (s *Store) ListReservations(ctx context.Context, olderThan time.Time, limit int64) ([]Reservation, error) {
	filter := bson.M{
		"processing_request_id": bson.M{"$exists": true, "$ne": nil},
		"$or": bson.A{
			bson.M{"processing_reserved_at": bson.M{"$exists": false}},
			bson.M{"processing_reserved_at": bson.M{"$lte": olderThan.UTC()}},
		},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "processing_request_id": 1, "processing_reserved_at": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Reservation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Donation dates                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// RecordDonation writes the donor's donation dates and clears the processing
// marker held for requestID. The write is refused (mongo.ErrNoDocuments) when
// the marker points at a different request.
func (s *Store) RecordDonation(ctx context.Context, donorID, requestID primitive.ObjectID, last, next time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                   donorID,
			"processing_request_id": bson.M{"$in": bson.A{nil, requestID}},
		},
		bson.M{
			"$set": bson.M{
				"last_donation_at": last,
				"next_eligible_at": next,
				"updated_at":       time.Now().UTC(),
			},
			"$unset": bson.M{"processing_request_id": "", "processing_reserved_at": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RewindDonation overwrites the donor's donation dates with last/next, but
// only while last_donation_at still equals expectLast. Pass nil to rewind
// unconditionally. Returns false when the donor has moved on.
func (s *Store) RewindDonation(ctx context.Context, donorID primitive.ObjectID, expectLast *time.Time, last, next time.Time) (bool, error) {
	filter := bson.M{"_id": donorID}
	if expectLast != nil {
		filter["last_donation_at"] = expectLast.UTC()
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"last_donation_at": last,
		"next_eligible_at": next,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Roles                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// PromoteRole changes the user's role from one label to another. Users whose
// current role is not from are left alone; the bool reports a change.
func (s *Store) PromoteRole(ctx context.Context, userID primitive.ObjectID, from, to string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "role": from},
		bson.M{"$set": bson.M{"role": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetRole overwrites the user's role. Used to undo a promotion.
func (s *Store) SetRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
	)
	return err
}
