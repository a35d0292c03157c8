// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

Several of these indexes are load-bearing for correctness, not just speed:
  - donation_requests.display_id is unique.
  - donation_requests.processing_donor_id is unique among "processing"
    requests, so a donor can never hold two requests at once.
  - hierarchy_slots (level, user_id) is unique, so a user occupies at most
    one slot among the teams of a level.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureDonationRequests(ctx, db); err != nil {
		problems = append(problems, "donation_requests: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureHierarchySlots(ctx, db); err != nil {
		problems = append(problems, "hierarchy_slots: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func partialSig(filter any) string {
	if filter == nil {
		return ""
	}
	switch f := filter.(type) {
	case bson.D:
		if len(f) == 0 {
			return ""
		}
		return keySig(f)
	default:
		return fmt.Sprintf("%v", f)
	}
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		var desiredPartial string
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
			desiredPartial = partialSig(m.Options.PartialFilterExpression)
		}
		desiredSig := keySig(m.Keys.(bson.D))
		unique := desiredUnique != nil && *desiredUnique

		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && partialSig(ex.Partial) == desiredPartial && (desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}

			// Options or name differ. Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			log.Info("dropped index with stale options", zap.String("existing", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collections                                                                */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	models := []mongo.IndexModel{
		{
			// Reconciler scan of outstanding donor reservations.
			Keys: bson.D{{Key: "processing_request_id", Value: 1}},
			Options: options.Index().
				SetName("idx_users_processing_request").
				SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_fullnameci_id"),
		},
		{
			Keys: bson.D{
				{Key: "blood_group", Value: 1},
				{Key: "district", Value: 1},
				{Key: "next_eligible_at", Value: 1},
			},
			Options: options.Index().SetName("idx_users_bloodgroup_district_next"),
		},
	}
	return ensureIndexSet(ctx, c, models)
}

func ensureDonationRequests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("donation_requests")
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "display_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_donation_requests_display_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "processing_donor_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_donation_requests_processing_donor").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "processing"}}),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_donation_requests_status_created"),
		},
		{
			Keys:    bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_donation_requests_requester_created"),
		},
	}
	return ensureIndexSet(ctx, c, models)
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "level", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().
				SetName("uniq_teams_level_nameci").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_parent"),
		},
	}
	return ensureIndexSet(ctx, c, models)
}

func ensureHierarchySlots(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("hierarchy_slots")
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "level", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_hierarchy_slots_level_user").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_hierarchy_slots_team"),
		},
	}
	return ensureIndexSet(ctx, c, models)
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_entity_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_created"),
		},
	}
	return ensureIndexSet(ctx, c, models)
}
