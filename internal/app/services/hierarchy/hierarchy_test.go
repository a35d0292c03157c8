package hierarchy_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dalemusser/bloodhub/internal/app/services/hierarchy"
	slotstore "github.com/dalemusser/bloodhub/internal/app/store/hierarchyslots"
	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/paging"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/domain/levels"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zaptest"
)

type env struct {
	db       *mongo.Database
	fixtures *testutil.Fixtures
	svc      *hierarchy.Service
	ctx      context.Context
	admin    models.Actor
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDBWithIndexes(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	return &env{
		db:       db,
		fixtures: testutil.NewFixtures(t, db),
		svc:      hierarchy.New(db, nil, zaptest.NewLogger(t)),
		ctx:      ctx,
		admin:    models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
	}
}

func (e *env) role(t *testing.T, id primitive.ObjectID) string {
	t.Helper()
	u, err := userstore.New(e.db).GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Role
}

func hexes(ids ...primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func TestCreateTeam_SiblingCoordinatorConflict(t *testing.T) {
	e := setup(t)
	u := e.fixtures.CreateUser(e.ctx, "Nadia", "nadia@example.com", "Moderator Coordinator")

	a, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level: levels.Moderator,
		Name:  "Team A",
		Slots: map[string]string{levels.SlotCoordinator: u.ID.Hex()},
	})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}

	_, err = e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level: levels.Moderator,
		Name:  "Team B",
		Slots: map[string]string{levels.SlotCoordinator: u.ID.Hex()},
	})
	if !errors.Is(err, faults.ErrAlreadyAssigned) {
		t.Fatalf("create B: expected AlreadyAssigned, got %v", err)
	}
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Ref != a.Name {
		t.Errorf("conflict ref = %q, want %q", fe.Ref, a.Name)
	}

	page, err := e.svc.ListByLevel(e.ctx, levels.Moderator, "", "")
	if err != nil {
		t.Fatalf("ListByLevel: %v", err)
	}
	if len(page.Teams) != 1 {
		t.Errorf("got %d moderator teams, want only A", len(page.Teams))
	}
}

func TestAddMember_SiblingConflictAndOtherLevel(t *testing.T) {
	e := setup(t)
	u := e.fixtures.CreateUser(e.ctx, "Rafi", "rafi@example.com", models.RoleUser)

	a, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar", Members: hexes(u.ID)})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Dhamrai"})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if _, err := e.svc.AddMember(e.ctx, e.admin, b.ID, u.ID); !errors.Is(err, faults.ErrAlreadyAssigned) {
		t.Fatalf("add to sibling: expected AlreadyAssigned, got %v", err)
	}

	d, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.District, Name: "Dhaka"})
	if err != nil {
		t.Fatalf("create district: %v", err)
	}
	if _, err := e.svc.AddMember(e.ctx, e.admin, d.ID, u.ID); err != nil {
		t.Fatalf("add at another level: %v", err)
	}

	// Leaving A frees the user for B.
	if _, err := e.svc.RemoveMember(e.ctx, e.admin, a.ID, u.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := e.svc.AddMember(e.ctx, e.admin, b.ID, u.ID)
	if err != nil {
		t.Fatalf("add after leaving: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0] != u.ID {
		t.Errorf("members = %v, want [%s]", got.Members, u.ID.Hex())
	}
}

func TestAddMember_PromotionIsNotReverted(t *testing.T) {
	e := setup(t)
	m1 := e.fixtures.CreateUser(e.ctx, "M1", "m1@example.com", models.RoleMember)
	m2 := e.fixtures.CreateUser(e.ctx, "M2", "m2@example.com", models.RoleMember)
	m3 := e.fixtures.CreateUser(e.ctx, "M3", "m3@example.com", models.RoleMember)
	u := e.fixtures.CreateUser(e.ctx, "Plain", "plain@example.com", models.RoleUser)

	team, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level:   levels.Moderator,
		Name:    "Moderators North",
		Members: hexes(m1.ID, m2.ID, m3.ID),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	team, err = e.svc.AddMember(e.ctx, e.admin, team.ID, u.ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(team.Members) != 4 {
		t.Fatalf("members = %d, want 4", len(team.Members))
	}
	if r := e.role(t, u.ID); r != models.RoleMember {
		t.Fatalf("role after add = %q, want Member", r)
	}

	if _, err := e.svc.RemoveMember(e.ctx, e.admin, team.ID, u.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if r := e.role(t, u.ID); r != models.RoleMember {
		t.Errorf("role after remove = %q, want Member kept", r)
	}
}

func TestAddMember_NoPromotionOutsideModerator(t *testing.T) {
	e := setup(t)
	u := e.fixtures.CreateUser(e.ctx, "Plain", "plain@example.com", models.RoleUser)

	team, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.svc.AddMember(e.ctx, e.admin, team.ID, u.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if r := e.role(t, u.ID); r != models.RoleUser {
		t.Errorf("role = %q, want unchanged", r)
	}
}

func TestAssignSlot_RoleMismatch(t *testing.T) {
	e := setup(t)
	plain := e.fixtures.CreateUser(e.ctx, "Plain", "plain@example.com", models.RoleUser)
	coord := e.fixtures.CreateUser(e.ctx, "Coord", "coord@example.com", "Upazila Coordinator")

	team, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.svc.AssignSlot(e.ctx, e.admin, team.ID, levels.SlotCoordinator, plain.ID); !errors.Is(err, faults.ErrRoleMismatch) {
		t.Fatalf("expected RoleMismatch, got %v", err)
	}
	if _, err := e.svc.AssignSlot(e.ctx, e.admin, team.ID, "treasurer", coord.ID); faults.KindOf(err) != faults.KindValidation {
		t.Fatalf("unknown slot: expected validation error, got %v", err)
	}

	got, err := e.svc.AssignSlot(e.ctx, e.admin, team.ID, levels.SlotCoordinator, coord.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Slots[levels.SlotCoordinator] != coord.ID {
		t.Error("expected coordinator slot filled")
	}
	h, err := slotstore.New(e.db).Holder(e.ctx, levels.Upazila, coord.ID)
	if err != nil || h.TeamID != team.ID || h.Slot != levels.SlotCoordinator {
		t.Errorf("reverse index = %+v, %v", h, err)
	}
}

func TestAssignSlot_MemberMovesIntoSlot(t *testing.T) {
	e := setup(t)
	coord := e.fixtures.CreateUser(e.ctx, "Coord", "coord@example.com", "Upazila Coordinator")

	team, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar", Members: hexes(coord.ID)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := e.svc.AssignSlot(e.ctx, e.admin, team.ID, levels.SlotCoordinator, coord.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(got.Members) != 0 {
		t.Errorf("members = %v, want user moved out of the member list", got.Members)
	}
	h, err := slotstore.New(e.db).Holder(e.ctx, levels.Upazila, coord.ID)
	if err != nil || h.Slot != levels.SlotCoordinator {
		t.Errorf("reverse index = %+v, %v", h, err)
	}
}

func TestAttachChild_AlreadyLinked(t *testing.T) {
	e := setup(t)
	p1, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Monitor, Name: "Monitors East"})
	if err != nil {
		t.Fatalf("create p1: %v", err)
	}
	p2, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Monitor, Name: "Monitors West"})
	if err != nil {
		t.Fatalf("create p2: %v", err)
	}
	child, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Moderator, Name: "Moderators 1"})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	got, err := e.svc.AttachChild(e.ctx, e.admin, p1.ID, child.ID)
	if err != nil {
		t.Fatalf("attach to p1: %v", err)
	}
	if len(got.ChildIDs) != 1 || got.ChildIDs[0] != child.ID {
		t.Errorf("p1 children = %v", got.ChildIDs)
	}
	if _, err := e.svc.AttachChild(e.ctx, e.admin, p1.ID, child.ID); err != nil {
		t.Fatalf("re-attach to p1: %v", err)
	}

	_, err = e.svc.AttachChild(e.ctx, e.admin, p2.ID, child.ID)
	if !errors.Is(err, faults.ErrAlreadyLinked) {
		t.Fatalf("attach to p2: expected AlreadyLinked, got %v", err)
	}
	var fe *faults.Error
	if errors.As(err, &fe) && fe.Ref != p1.Name {
		t.Errorf("ref = %q, want %q", fe.Ref, p1.Name)
	}
}

func TestAttachChild_WrongLevel(t *testing.T) {
	e := setup(t)
	parent, _ := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Divisional, Name: "Dhaka Division"})
	child, _ := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"})

	if _, err := e.svc.AttachChild(e.ctx, e.admin, parent.ID, child.ID); faults.KindOf(err) != faults.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTeam_Policy(t *testing.T) {
	e := setup(t)
	plain := e.fixtures.CreateUser(e.ctx, "Plain", "plain@example.com", models.RoleUser)
	monitor := e.fixtures.CreateUser(e.ctx, "Mon", "mon@example.com", "Monitor Coordinator")

	in := hierarchy.TeamInput{Level: levels.Moderator, Name: "Moderators 1"}
	if _, err := e.svc.CreateTeam(e.ctx, models.Actor{ID: plain.ID, Role: plain.Role}, in); !errors.Is(err, faults.ErrForbidden) {
		t.Fatalf("plain user: expected Forbidden, got %v", err)
	}
	if _, err := e.svc.CreateTeam(e.ctx, models.Actor{ID: monitor.ID, Role: monitor.Role}, in); err != nil {
		t.Fatalf("monitor coordinator: %v", err)
	}
	root := hierarchy.TeamInput{Level: levels.Monitor, Name: "Monitors"}
	if _, err := e.svc.CreateTeam(e.ctx, models.Actor{ID: monitor.ID, Role: monitor.Role}, root); !errors.Is(err, faults.ErrForbidden) {
		t.Fatalf("root level: expected Forbidden, got %v", err)
	}
}

func TestCreateTeam_DuplicateName(t *testing.T) {
	e := setup(t)
	if _, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "SAVAR"}); !errors.Is(err, faults.ErrDuplicateTeam) {
		t.Fatalf("expected DuplicateTeam, got %v", err)
	}
}

func TestUpdateTeam_StaleVersion(t *testing.T) {
	e := setup(t)
	team, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := e.svc.UpdateTeam(e.ctx, e.admin, team.ID, hierarchy.UpdateInput{Name: "Savar North", Version: team.Version})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != team.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, team.Version+1)
	}
	if _, err := e.svc.UpdateTeam(e.ctx, e.admin, team.ID, hierarchy.UpdateInput{Name: "Savar South", Version: team.Version}); !errors.Is(err, faults.ErrRaceLost) {
		t.Fatalf("stale update: expected RaceLost, got %v", err)
	}
}

func TestDeleteTeam_FreesOccupantsAndDetachesChildren(t *testing.T) {
	e := setup(t)
	u := e.fixtures.CreateUser(e.ctx, "Coord", "coord@example.com", "District Coordinator")

	district, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level: levels.District,
		Name:  "Dhaka",
		Slots: map[string]string{levels.SlotCoordinator: u.ID.Hex()},
	})
	if err != nil {
		t.Fatalf("create district: %v", err)
	}
	child, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level:    levels.Upazila,
		Name:     "Savar",
		ParentID: district.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := e.svc.DeleteTeam(e.ctx, e.admin, district.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.svc.Get(e.ctx, district.ID); faults.KindOf(err) != faults.KindNotFound {
		t.Errorf("expected deleted team to be gone, got %v", err)
	}
	got, err := e.svc.Get(e.ctx, child.ID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if got.ParentID != nil {
		t.Error("expected child detached")
	}

	if _, err := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{
		Level: levels.District,
		Name:  "Gazipur",
		Slots: map[string]string{levels.SlotCoordinator: u.ID.Hex()},
	}); err != nil {
		t.Fatalf("reuse coordinator after delete: %v", err)
	}
}

func TestAddMember_ConcurrentSiblings(t *testing.T) {
	e := setup(t)
	u := e.fixtures.CreateUser(e.ctx, "Rafi", "rafi@example.com", models.RoleUser)
	a, _ := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Savar"})
	b, _ := e.svc.CreateTeam(e.ctx, e.admin, hierarchy.TeamInput{Level: levels.Upazila, Name: "Dhamrai"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []primitive.ObjectID{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id primitive.ObjectID) {
			defer wg.Done()
			_, errs[i] = e.svc.AddMember(e.ctx, e.admin, id, u.ID)
		}(i, id)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, faults.ErrAlreadyAssigned), errors.Is(err, faults.ErrRaceLost):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want exactly one of each", ok, conflicts)
	}
}

func TestListByLevel_Pages(t *testing.T) {
	e := setup(t)
	for i := 0; i < paging.PageSize+5; i++ {
		e.fixtures.CreateTeam(e.ctx, levels.Upazila, fmt.Sprintf("Upazila %03d", i), nil, nil)
	}

	first, err := e.svc.ListByLevel(e.ctx, levels.Upazila, "", "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Teams) != paging.PageSize || !first.HasNext || first.HasPrev || first.Next == "" {
		t.Fatalf("first page: %d teams, has_next=%v has_prev=%v", len(first.Teams), first.HasNext, first.HasPrev)
	}
	if first.Teams[0].Name != "Upazila 000" {
		t.Errorf("first team = %q, want Upazila 000", first.Teams[0].Name)
	}

	second, err := e.svc.ListByLevel(e.ctx, levels.Upazila, "", first.Next)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Teams) != 5 || second.HasNext || !second.HasPrev {
		t.Fatalf("second page: %d teams, has_next=%v has_prev=%v", len(second.Teams), second.HasNext, second.HasPrev)
	}
	if second.Teams[0].Name != fmt.Sprintf("Upazila %03d", paging.PageSize) {
		t.Errorf("second page starts at %q", second.Teams[0].Name)
	}

	back, err := e.svc.ListByLevel(e.ctx, levels.Upazila, second.Prev, "")
	if err != nil {
		t.Fatalf("back page: %v", err)
	}
	if len(back.Teams) != paging.PageSize || back.Teams[len(back.Teams)-1].Name != fmt.Sprintf("Upazila %03d", paging.PageSize-1) {
		t.Errorf("back page: %d teams ending at %q", len(back.Teams), back.Teams[len(back.Teams)-1].Name)
	}
}
