// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryRequests    = "requests"
	CategoryHierarchy   = "hierarchy"
	CategoryMaintenance = "maintenance"
)

// Request lifecycle event types
const (
	EventRequestCreated         = "request_created"
	EventRequestClaimed         = "request_claimed"
	EventRequestReleased        = "request_released"
	EventRequestFulfilled       = "request_fulfilled"
	EventRequestDirectFulfilled = "request_direct_fulfilled"
	EventRequestReset           = "request_reset"
	EventRequestCancelled       = "request_cancelled"
	EventRequestRejected        = "request_rejected"
)

// Hierarchy event types
const (
	EventTeamCreated     = "team_created"
	EventTeamUpdated     = "team_updated"
	EventTeamDeleted     = "team_deleted"
	EventMemberAdded     = "team_member_added"
	EventMemberRemoved   = "team_member_removed"
	EventChildAttached   = "team_child_attached"
	EventMemberPromoted  = "user_promoted_member"
	EventReservationFree = "donor_reservation_released"
	EventDonationRepair  = "donor_donation_repaired"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// What: the request or team the event is about.
	EntityID  primitive.ObjectID `bson:"entity_id" json:"entity_id"`
	EntityRef string             `bson:"entity_ref,omitempty" json:"entity_ref,omitempty"` // display id or team name

	// Who
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"` // affected donor or member

	// Correlates every event written while serving one HTTP request.
	CorrelationID string `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	EntityID  *primitive.ObjectID
	UserID    *primitive.ObjectID
	Category  string
	EventType string
	Limit     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.EntityID != nil {
		query["entity_id"] = *filter.EntityID
	}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ForEntity returns the most recent events about one request or team.
func (s *Store) ForEntity(ctx context.Context, entityID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{EntityID: &entityID, Limit: limit})
}
