// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/bloodhub/internal/domain/levels"
	"github.com/dalemusser/bloodhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Servers that reject collMod/validators are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("donation_requests", donationRequestsSchema())
	ensure("teams", teamsSchema())
	ensure("hierarchy_slots", hierarchySlotsSchema())

	// Append-only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "role"},
			"properties": bson.M{
				"full_name":             nonBlank,
				"role":                  nonBlank,
				"is_banned":             bson.M{"bsonType": "bool"},
				"is_approved":           bson.M{"bsonType": "bool"},
				"last_donation_at":      bson.M{"bsonType": bson.A{"date", "null"}},
				"next_eligible_at":      bson.M{"bsonType": bson.A{"date", "null"}},
				"processing_request_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func donationRequestsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"display_id", "status", "requester_id"},
			"properties": bson.M{
				"display_id":   bson.M{"bsonType": "string", "pattern": "^[1-9][0-9]{9}$"},
				"status":       bson.M{"enum": requestStatusEnum()},
				"requester_id": bson.M{"bsonType": "objectId"},
				"units_needed": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},

				"processing_donor_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"fulfilling_donor_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"fulfilled_on":        bson.M{"bsonType": bson.A{"date", "null"}},
				"updated_by_id":       bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func teamsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"level", "name", "name_ci"},
			"properties": bson.M{
				"level":     bson.M{"enum": levelEnum()},
				"name":      nonBlank,
				"name_ci":   nonBlank,
				"slots":     bson.M{"bsonType": "object"},
				"members":   bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"parent_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func hierarchySlotsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"level", "user_id", "team_id", "slot"},
			"properties": bson.M{
				"level":   bson.M{"enum": levelEnum()},
				"user_id": bson.M{"bsonType": "objectId"},
				"team_id": bson.M{"bsonType": "objectId"},
				"slot":    nonBlank,
			},
		},
	}
}

func requestStatusEnum() bson.A {
	out := bson.A{}
	for _, s := range models.RequestStatuses {
		out = append(out, s)
	}
	return out
}

func levelEnum() bson.A {
	out := bson.A{}
	for _, n := range levels.Names() {
		out = append(out, n)
	}
	return out
}
