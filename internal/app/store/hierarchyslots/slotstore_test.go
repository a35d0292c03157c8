package slotstore_test

import (
	"errors"
	"testing"

	slotstore "github.com/dalemusser/bloodhub/internal/app/store/hierarchyslots"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClaim_ExclusiveWithinLevel(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := slotstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	teamA, teamB := primitive.NewObjectID(), primitive.NewObjectID()

	if err := store.Claim(ctx, "upazila", user, teamA, "coordinator"); err != nil {
		t.Fatalf("Claim A: %v", err)
	}
	if err := store.Claim(ctx, "upazila", user, teamB, "member"); !errors.Is(err, slotstore.ErrOccupied) {
		t.Fatalf("Claim B err = %v, want ErrOccupied", err)
	}
	// Different level is independent.
	if err := store.Claim(ctx, "district", user, teamB, "member"); err != nil {
		t.Fatalf("Claim at other level: %v", err)
	}

	h, err := store.Holder(ctx, "upazila", user)
	if err != nil {
		t.Fatalf("Holder: %v", err)
	}
	if h.TeamID != teamA || h.Slot != "coordinator" {
		t.Errorf("Holder = %+v, want team A coordinator", h)
	}
}

func TestMove_SameTeamUpdatesSlot(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := slotstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, team := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Claim(ctx, "moderator", user, team, "member"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.Move(ctx, "moderator", user, team, "co_coordinator"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := store.Move(ctx, "moderator", user, primitive.NewObjectID(), "member"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("Move in other team err = %v, want ErrNoDocuments", err)
	}
	h, _ := store.Holder(ctx, "moderator", user)
	if h == nil || h.Slot != "co_coordinator" {
		t.Errorf("slot = %+v, want co_coordinator", h)
	}
}

func TestReleaseTeam(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := slotstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := primitive.NewObjectID()
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	_ = store.Claim(ctx, "district", u1, team, "coordinator")
	_ = store.Claim(ctx, "district", u2, team, "member")

	if err := store.ReleaseTeam(ctx, team); err != nil {
		t.Fatalf("ReleaseTeam: %v", err)
	}
	if _, err := store.Holder(ctx, "district", u1); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Holder after release err = %v, want ErrNoDocuments", err)
	}
	if err := store.Claim(ctx, "district", u1, primitive.NewObjectID(), "member"); err != nil {
		t.Errorf("claim after release should succeed: %v", err)
	}
}
