package donorrecord_test

import (
	"testing"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/services/donorrecord"
	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/eligibility"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecordDonation_SetsWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Rahim", -1)
	up := donorrecord.New(db)

	when := time.Date(2025, 3, 5, 17, 45, 0, 0, time.UTC)
	if err := up.RecordDonation(ctx, donor.ID, primitive.NewObjectID(), when); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	got, err := userstore.New(db).GetByID(ctx, donor.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s := dates.FormatPtr(got.LastDonationAt); s != "05/03/2025" {
		t.Errorf("last donation = %q, want 05/03/2025", s)
	}
	if s := dates.FormatPtr(got.NextEligibleAt); s != "03/07/2025" {
		t.Errorf("next eligible = %q, want 03/07/2025", s)
	}
}

func TestRewindDonation_RestoresEligibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateDonor(ctx, "Rahim", 0)
	up := donorrecord.New(db)
	now := time.Now().UTC()

	changed, err := up.RewindDonation(ctx, donor.ID, now, donor.LastDonationAt)
	if err != nil || !changed {
		t.Fatalf("RewindDonation: changed=%v err=%v", changed, err)
	}

	got, _ := userstore.New(db).GetByID(ctx, donor.ID)
	if d := dates.DaysBetween(*got.LastDonationAt, now); d != 121 {
		t.Errorf("last donation %d days ago, want 121", d)
	}
	if d := dates.DaysBetween(*got.NextEligibleAt, now); d != 1 {
		t.Errorf("next eligible %d days ago, want 1", d)
	}
	if res := eligibility.Evaluate(got, now); !res.Eligible {
		t.Errorf("donor should be eligible after rewind, reason %q", res.Reason)
	}
}
