package workers

import (
	"testing"
	"time"

	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

func TestRunOnce_RepairsStaleMarkers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	users := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w, err := NewReconciler(db, nil, zaptest.NewLogger(t), "", time.Minute)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	now := time.Now().UTC()
	w.now = func() time.Time { return now }
	old := now.Add(-time.Hour)

	requester := fixtures.CreateUser(ctx, "Requester", "req@example.com", models.RoleUser)

	reserve := func(donor, request primitive.ObjectID, at time.Time) {
		t.Helper()
		ok, err := users.ReserveDonor(ctx, donor, request, at)
		if err != nil || !ok {
			t.Fatalf("reserve: ok=%v err=%v", ok, err)
		}
	}
	setRequest := func(id primitive.ObjectID, set bson.M) {
		t.Helper()
		if _, err := db.Collection("donation_requests").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
			t.Fatalf("update request: %v", err)
		}
	}

	// Marker points at a request that went back to pending.
	orphan := fixtures.CreateDonor(ctx, "Orphan", -1)
	pending := fixtures.CreateRequest(ctx, requester.ID, "1000000001")
	reserve(orphan.ID, pending.ID, old)

	// Marker matches a live processing request.
	active := fixtures.CreateDonor(ctx, "Active", -1)
	processing := fixtures.CreateRequest(ctx, requester.ID, "1000000002")
	reserve(active.ID, processing.ID, old)
	setRequest(processing.ID, bson.M{"status": models.RequestProcessing, "processing_donor_id": active.ID})

	// Request was fulfilled but the donor write never landed.
	donated := fixtures.CreateDonor(ctx, "Donated", -1)
	fulfilled := fixtures.CreateRequest(ctx, requester.ID, "1000000003")
	reserve(donated.ID, fulfilled.ID, old)
	day := dates.AddDays(now, -3)
	setRequest(fulfilled.ID, bson.M{"status": models.RequestFulfilled, "fulfilling_donor_id": donated.ID, "fulfilled_on": day})

	// Marker points at a request that does not exist.
	lost := fixtures.CreateDonor(ctx, "Lost", -1)
	reserve(lost.ID, primitive.NewObjectID(), old)

	// Too young to touch.
	fresh := fixtures.CreateDonor(ctx, "Fresh", -1)
	freshReq := fixtures.CreateRequest(ctx, requester.ID, "1000000004")
	reserve(fresh.ID, freshReq.ID, now)

	res, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Checked != 4 || res.Released != 2 || res.Repaired != 1 {
		t.Errorf("result = %+v, want checked=4 released=2 repaired=1", res)
	}

	load := func(id primitive.ObjectID) *models.User {
		t.Helper()
		u, err := users.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		return u
	}

	if u := load(orphan.ID); u.ProcessingRequestID != nil {
		t.Error("orphan marker should be released")
	}
	if u := load(lost.ID); u.ProcessingRequestID != nil {
		t.Error("marker to a missing request should be released")
	}
	if u := load(active.ID); u.ProcessingRequestID == nil || *u.ProcessingRequestID != processing.ID {
		t.Error("active marker should be kept")
	}
	if u := load(fresh.ID); u.ProcessingRequestID == nil {
		t.Error("fresh marker should be kept")
	}

	u := load(donated.ID)
	if u.ProcessingRequestID != nil {
		t.Error("fulfilled donor marker should be cleared")
	}
	if u.LastDonationAt == nil || !u.LastDonationAt.Equal(dates.Day(day)) {
		t.Errorf("last donation = %v, want %v", u.LastDonationAt, dates.Day(day))
	}
	if u.NextEligibleAt == nil || !u.NextEligibleAt.Equal(dates.AddDays(day, 120)) {
		t.Errorf("next eligible = %v, want %v", u.NextEligibleAt, dates.AddDays(day, 120))
	}

	// A second pass has nothing left to fix.
	res, err = w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if res.Released != 0 || res.Repaired != 0 {
		t.Errorf("second pass result = %+v, want no repairs", res)
	}
}

func TestNewReconciler_RejectsBadSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if _, err := NewReconciler(db, nil, zaptest.NewLogger(t), "not a schedule", 0); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestValidateSchedule(t *testing.T) {
	for _, spec := range []string{"*/5 * * * *", "@every 1m", "@hourly"} {
		if err := ValidateSchedule(spec); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v", spec, err)
		}
	}
	if err := ValidateSchedule("61 * * * *"); err == nil {
		t.Error("expected error for minute 61")
	}
}
