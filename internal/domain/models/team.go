package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a node in the volunteer hierarchy (monitor, moderator, divisional,
// district or upazila team). All levels share this shape; the level registry
// in the hierarchy service decides which slot names are valid for a level and
// which level its children belong to.
//
// NOTE:
//   - Slots and Members are the authoritative team view. The reverse index in
//     hierarchy_slots (one document per level+user) enforces that a user
//     occupies at most one slot among sibling teams and is kept in step with
//     these fields.
//   - ParentID is authoritative for parent/child links; ChildIDs on the parent
//     mirrors it for listing.
type Team struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Level  string             `bson:"level" json:"level"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Area   string             `bson:"area,omitempty" json:"area,omitempty"`

	Slots   map[string]primitive.ObjectID `bson:"slots" json:"slots"`
	Members []primitive.ObjectID          `bson:"members" json:"members"`

	ParentID *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	ChildIDs []primitive.ObjectID `bson:"child_ids,omitempty" json:"child_ids,omitempty"`

	// Version is bumped on every replace; updates are conditional on it.
	Version int64 `bson:"version" json:"version"`

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	UpdatedByID primitive.ObjectID `bson:"updated_by_id" json:"updated_by_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Occupants returns every user referenced by the team with the slot they hold.
// Plain members are reported under SlotMember.
func (t Team) Occupants() map[primitive.ObjectID]string {
	out := make(map[primitive.ObjectID]string, len(t.Slots)+len(t.Members))
	for slot, uid := range t.Slots {
		out[uid] = slot
	}
	for _, uid := range t.Members {
		if _, taken := out[uid]; !taken {
			out[uid] = SlotMember
		}
	}
	return out
}
