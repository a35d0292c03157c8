package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role labels stored on User.Role. Coordinator labels for hierarchy slots
// ("Upazila Coordinator", ...) are defined by the hierarchy level registry.
const (
	RoleUser       = "user"
	RoleMember     = "Member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User is a platform account. Every user is a potential donor; the donor
// record fields below are written only by the donor record updater.
//
// NOTE:
//   - Donation dates are stored as UTC calendar days. The dd/mm/yyyy strings
//     seen by API clients are produced at the presentation boundary.
//   - ProcessingRequestID is the donor exclusivity marker: it is set while the
//     donor holds a request in "processing" and is only changed through
//     conditional updates in the user store.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	// Donor record
	BloodGroup     string     `bson:"blood_group,omitempty" json:"blood_group,omitempty"`
	District       string     `bson:"district,omitempty" json:"district,omitempty"`
	Upazila        string     `bson:"upazila,omitempty" json:"upazila,omitempty"`
	IsBanned       bool       `bson:"is_banned" json:"is_banned"`
	IsApproved     bool       `bson:"is_approved" json:"is_approved"`
	LastDonationAt *time.Time `bson:"last_donation_at,omitempty" json:"-"`
	NextEligibleAt *time.Time `bson:"next_eligible_at,omitempty" json:"-"`

	ProcessingRequestID  *primitive.ObjectID `bson:"processing_request_id,omitempty" json:"processing_request_id,omitempty"`
	ProcessingReservedAt *time.Time          `bson:"processing_reserved_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
