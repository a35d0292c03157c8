package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request status values. These strings are persisted and must not change.
const (
	RequestPending    = "pending"
	RequestProcessing = "processing"
	RequestFulfilled  = "fulfilled"
	RequestCancelled  = "cancelled"
	RequestRejected   = "rejected"
)

// RequestStatuses lists every valid status.
var RequestStatuses = []string{RequestPending, RequestProcessing, RequestFulfilled, RequestCancelled, RequestRejected}

// DonationRequest is a request for blood raised by a user.
//
// At most one of ProcessingDonorID / FulfillingDonorID is set:
// ProcessingDonorID only while Status is "processing", FulfillingDonorID only
// while Status is "fulfilled".
type DonationRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayID string             `bson:"display_id" json:"display_id"`

	BloodGroup      string     `bson:"blood_group" json:"blood_group"`
	UnitsNeeded     int        `bson:"units_needed" json:"units_needed"`
	HospitalName    string     `bson:"hospital_name" json:"hospital_name"`
	District        string     `bson:"district" json:"district"`
	Upazila         string     `bson:"upazila" json:"upazila"`
	ContactNumber   string     `bson:"contact_number" json:"contact_number"`
	ContactRelation string     `bson:"contact_relation,omitempty" json:"contact_relation,omitempty"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	NeededOn        *time.Time `bson:"needed_on,omitempty" json:"-"`

	RequesterID primitive.ObjectID `bson:"requester_id" json:"requester_id"`
	Status      string             `bson:"status" json:"status"`

	ProcessingDonorID *primitive.ObjectID `bson:"processing_donor_id,omitempty" json:"processing_donor_id,omitempty"`
	FulfillingDonorID *primitive.ObjectID `bson:"fulfilling_donor_id,omitempty" json:"fulfilling_donor_id,omitempty"`
	// FulfilledOn is the donation day recorded on the fulfilling donor.
	FulfilledOn *time.Time `bson:"fulfilled_on,omitempty" json:"-"`

	VolunteerID *primitive.ObjectID `bson:"volunteer_id,omitempty" json:"volunteer_id,omitempty"`
	UpdatedByID primitive.ObjectID  `bson:"updated_by_id" json:"updated_by_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the request was cancelled or rejected.
func (r DonationRequest) IsTerminal() bool {
	return r.Status == RequestCancelled || r.Status == RequestRejected
}
