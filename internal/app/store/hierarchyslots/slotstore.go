package slotstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrOccupied is returned when the user already holds a slot at the level in
// another team.
var ErrOccupied = errors.New("user already holds a slot at this level")

// Store is the reverse index (level, user) -> team slot. The unique index on
// (level, user_id) turns "at most one slot among sibling teams" into a single
// insert.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hierarchy_slots")}
}

// Claim records that userID holds slot in teamID. ErrOccupied is returned
// when the user already has an entry at the level, in any team; use Move to
// change the slot of a user who stays in the same team. Claim is a single
// insert so it is safe inside a transaction.
func (s *Store) Claim(ctx context.Context, level string, userID, teamID primitive.ObjectID, slot string) error {
	_, err := s.c.InsertOne(ctx, models.HierarchySlot{
		ID:        primitive.NewObjectID(),
		Level:     level,
		UserID:    userID,
		TeamID:    teamID,
		Slot:      slot,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrOccupied
	}
	return err
}

// Move changes the slot name of a user already recorded in teamID.
func (s *Store) Move(ctx context.Context, level string, userID, teamID primitive.ObjectID, slot string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"level": level, "user_id": userID, "team_id": teamID},
		bson.M{"$set": bson.M{"slot": slot}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Release drops the user's entry if it belongs to teamID.
func (s *Store) Release(ctx context.Context, level string, userID, teamID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"level": level, "user_id": userID, "team_id": teamID})
	return err
}

// ReleaseTeam drops every entry of teamID.
func (s *Store) ReleaseTeam(ctx context.Context, teamID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	return err
}

// Holder returns the entry for (level, user). mongo.ErrNoDocuments if none.
func (s *Store) Holder(ctx context.Context, level string, userID primitive.ObjectID) (*models.HierarchySlot, error) {
	var h models.HierarchySlot
	if err := s.c.FindOne(ctx, bson.M{"level": level, "user_id": userID}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByTeam returns every entry of teamID.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.HierarchySlot, error) {
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.HierarchySlot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
