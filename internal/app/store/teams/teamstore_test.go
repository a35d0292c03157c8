package teamstore_test

import (
	"errors"
	"testing"

	teamstore "github.com/dalemusser/bloodhub/internal/app/store/teams"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_DuplicateNameAtLevel(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Team{Level: "upazila", Name: "Savar"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Team{Level: "upazila", Name: "savar"}); !errors.Is(err, teamstore.ErrDuplicateName) {
		t.Fatalf("Create duplicate err = %v, want ErrDuplicateName", err)
	}
	if _, err := store.Create(ctx, models.Team{Level: "district", Name: "Savar"}); err != nil {
		t.Fatalf("same name at another level should succeed: %v", err)
	}
}

func TestReplace_VersionConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team, err := store.Create(ctx, models.Team{Level: "upazila", Name: "Savar"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	a := team
	a.Members = []primitive.ObjectID{primitive.NewObjectID()}
	updated, err := store.Replace(ctx, a)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if updated.Version != team.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, team.Version+1)
	}

	// Stale copy loses.
	b := team
	b.Area = "north"
	if _, err := store.Replace(ctx, b); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("stale Replace err = %v, want ErrNoDocuments", err)
	}
}

func TestAttachParent_SingleParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p1, _ := store.Create(ctx, models.Team{Level: "district", Name: "Dhaka"})
	p2, _ := store.Create(ctx, models.Team{Level: "district", Name: "Gazipur"})
	child, _ := store.Create(ctx, models.Team{Level: "upazila", Name: "Savar"})

	ok, err := store.AttachParent(ctx, child.ID, "upazila", p1.ID)
	if err != nil || !ok {
		t.Fatalf("attach p1: ok=%v err=%v", ok, err)
	}
	// Idempotent for the same parent.
	if ok, _ := store.AttachParent(ctx, child.ID, "upazila", p1.ID); !ok {
		t.Error("re-attaching the same parent should succeed")
	}
	if ok, _ := store.AttachParent(ctx, child.ID, "upazila", p2.ID); ok {
		t.Error("attaching a second parent must fail")
	}
	// Level mismatch never matches.
	if ok, _ := store.AttachParent(ctx, p2.ID, "upazila", p1.ID); ok {
		t.Error("attaching a team of the wrong level must fail")
	}

	if err := store.DetachParent(ctx, child.ID, p1.ID); err != nil {
		t.Fatalf("DetachParent: %v", err)
	}
	if ok, _ := store.AttachParent(ctx, child.ID, "upazila", p2.ID); !ok {
		t.Error("attach after detach should succeed")
	}
}
