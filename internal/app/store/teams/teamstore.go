package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/paging"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when a team with the same name exists at the level.
var ErrDuplicateName = errors.New("a team with this name already exists at this level")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

// Create inserts t. ID and timestamps are assigned here; Version starts at 1.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.NameCI = text.Fold(t.Name)
	if t.Slots == nil {
		t.Slots = map[string]primitive.ObjectID{}
	}
	if t.Members == nil {
		t.Members = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateName
		}
		return models.Team{}, err
	}
	return t, nil
}

// GetByID loads a team. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByLevel returns one page of the teams of a level ordered by name. The
// page is read in cfg's direction; callers trim and reverse it.
func (s *Store) ListByLevel(ctx context.Context, level string, cfg paging.KeysetConfig) ([]models.Team, error) {
	filter := bson.M{"level": level}
	if window := cfg.KeysetWindow("name_ci"); window != nil {
		for k, v := range window {
			filter[k] = v
		}
	}
	find := options.Find()
	cfg.ApplyToFind(find, "name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace writes t over the stored document if the stored Version still
// equals t.Version, and bumps the version. Returns mongo.ErrNoDocuments when
// another writer got there first.
func (s *Store) Replace(ctx context.Context, t models.Team) (models.Team, error) {
	prev := t.Version
	t.NameCI = text.Fold(t.Name)
	t.Version = prev + 1
	t.UpdatedAt = time.Now().UTC()

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": t.ID, "version": prev}, t)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateName
		}
		return models.Team{}, err
	}
	if res.MatchedCount == 0 {
		return models.Team{}, mongo.ErrNoDocuments
	}
	return t, nil
}

// Delete removes the team document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AttachParent links child to parent. The write only lands while the child
// has no parent (or already has this one). Returns false otherwise.
func (s *Store) AttachParent(ctx context.Context, childID primitive.ObjectID, childLevel string, parentID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":       childID,
			"level":     childLevel,
			"parent_id": bson.M{"$in": bson.A{nil, parentID}},
		},
		bson.M{
			"$set": bson.M{"parent_id": parentID, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// DetachParent clears child's parent link if it points at parentID.
func (s *Store) DetachParent(ctx context.Context, childID, parentID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": childID, "parent_id": parentID},
		bson.M{
			"$unset": bson.M{"parent_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
			"$inc":   bson.M{"version": 1},
		},
	)
	return err
}

// DetachChildren clears the parent link of every child of parentID.
func (s *Store) DetachChildren(ctx context.Context, parentID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"parent_id": parentID},
		bson.M{
			"$unset": bson.M{"parent_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
			"$inc":   bson.M{"version": 1},
		},
	)
	return err
}

// AddChild mirrors a parent link onto the parent's child list.
func (s *Store) AddChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": parentID},
		bson.M{
			"$addToSet": bson.M{"child_ids": childID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
			"$inc":      bson.M{"version": 1},
		},
	)
	return err
}

// RemoveChild drops childID from the parent's child list.
func (s *Store) RemoveChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": parentID},
		bson.M{
			"$pull": bson.M{"child_ids": childID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
			"$inc":  bson.M{"version": 1},
		},
	)
	return err
}
