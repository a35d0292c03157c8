package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotMember is the slot name recorded for plain team members.
const SlotMember = "member"

// HierarchySlot is the reverse index entry user -> occupied slot.
// Exactly one document per (level, user_id); the unique index on that pair is
// what makes sibling-team occupancy exclusive.
type HierarchySlot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Level     string             `bson:"level" json:"level"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	Slot      string             `bson:"slot" json:"slot"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
