// Package eligibility decides whether a donor may donate now.
//
// Evaluate is pure and is shared by the claim and fulfill paths and by the
// donor eligibility endpoint. Filter expresses the same predicate as a Mongo
// query so that reservations can re-check eligibility inside one conditional
// write.
package eligibility

import (
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// CooldownDays is the eligibility window after a donation.
const CooldownDays = 120

// Failure reasons. The cooldown reason is built with the next eligible day.
const (
	ReasonNotFound    = "not found"
	ReasonBanned      = "donor is banned"
	ReasonNotApproved = "donor is not approved yet"
)

// Result is the outcome of Evaluate.
type Result struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	// NextEligibleOn is set when the donor is inside the cooldown window.
	NextEligibleOn *time.Time `json:"-"`
}

// Evaluate checks, in order: missing donor, ban, approval, cooldown.
// The first failing check supplies the reason. Dates compare at day
// granularity and the boundary is inclusive: a donor who donated exactly
// CooldownDays ago is eligible.
func Evaluate(donor *models.User, now time.Time) Result {
	if donor == nil {
		return Result{Reason: ReasonNotFound}
	}
	if donor.IsBanned {
		return Result{Reason: ReasonBanned}
	}
	if !donor.IsApproved {
		return Result{Reason: ReasonNotApproved}
	}
	if donor.LastDonationAt != nil {
		next := dates.AddDays(*donor.LastDonationAt, CooldownDays)
		if dates.Day(now).Before(next) {
			return Result{
				Reason:         CooldownReason(next),
				NextEligibleOn: &next,
			}
		}
	}
	return Result{Eligible: true}
}

// CooldownReason is the message shown while a donor waits out the window.
func CooldownReason(next time.Time) string {
	return "donor can donate again on " + dates.Format(next)
}

// Cutoff is the latest last-donation day that still allows donating on now.
func Cutoff(now time.Time) time.Time {
	return dates.AddDays(now, -CooldownDays)
}

// Filter returns the Mongo predicate matching eligible donors on now.
// It uses a top-level $or; callers must not add another $or to the same map.
func Filter(now time.Time) bson.M {
	return bson.M{
		"is_banned":   bson.M{"$ne": true},
		"is_approved": true,
		"$or": []bson.M{
			{"last_donation_at": nil},
			{"last_donation_at": bson.M{"$lte": Cutoff(now)}},
		},
	}
}
