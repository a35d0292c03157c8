// Package donorrecord applies the side effects of fulfillment and reset to a
// donor's donation dates. It is the only writer of last_donation_at and
// next_eligible_at.
package donorrecord

import (
	"context"
	"time"

	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/eligibility"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Updater writes donation dates through the user store.
type Updater struct {
	users *userstore.Store
}

// New builds an Updater.
func New(db *mongo.Database) *Updater {
	return &Updater{users: userstore.New(db)}
}

// RecordDonation sets last donation to the day of date and next eligible to
// that day plus the cooldown. The donor's processing marker for requestID is
// cleared in the same write.
func (u *Updater) RecordDonation(ctx context.Context, donorID, requestID primitive.ObjectID, date time.Time) error {
	last := dates.Day(date)
	next := dates.AddDays(last, eligibility.CooldownDays)
	return u.users.RecordDonation(ctx, donorID, requestID, last, next)
}

// RewindDonation makes the donor eligible again as of now: last donation
// becomes now-121 days and next eligible now-1 day. When expectLast is set
// the rewind applies only if the donor's last donation is still that day;
// the bool reports whether the donor record changed.
func (u *Updater) RewindDonation(ctx context.Context, donorID primitive.ObjectID, now time.Time, expectLast *time.Time) (bool, error) {
	last := dates.AddDays(now, -(eligibility.CooldownDays + 1))
	next := dates.AddDays(now, -1)
	if expectLast != nil {
		day := dates.Day(*expectLast)
		expectLast = &day
	}
	return u.users.RewindDonation(ctx, donorID, expectLast, last, next)
}
