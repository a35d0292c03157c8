// Package hierarchy maintains the volunteer team tree.
//
// A user occupies at most one place (coordinator slot, co-coordinator slot or
// member) among the teams of one level. The hierarchy_slots reverse index
// holds one document per (level, user) under a unique index, and every team
// write updates it in the same transaction as the team document. On
// deployments without transactions the writes run in sequence and are
// compensated on failure.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/bloodhub/internal/app/policy/teampolicy"
	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	slotstore "github.com/dalemusser/bloodhub/internal/app/store/hierarchyslots"
	teamstore "github.com/dalemusser/bloodhub/internal/app/store/teams"
	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodhub/internal/app/system/inputval"
	"github.com/dalemusser/bloodhub/internal/app/system/paging"
	"github.com/dalemusser/bloodhub/internal/app/system/txn"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/domain/levels"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service is the hierarchy membership guard.
type Service struct {
	client *mongo.Client
	teams  *teamstore.Store
	slots  *slotstore.Store
	users  *userstore.Store
	audit  *auditlog.Logger
	log    *zap.Logger
}

// New builds a Service over db. audit may be nil.
func New(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: db.Client(),
		teams:  teamstore.New(db),
		slots:  slotstore.New(db),
		users:  userstore.New(db),
		audit:  audit,
		log:    logger,
	}
}

// TeamInput is the payload for creating a team.
type TeamInput struct {
	Level    string            `json:"level" validate:"required" label:"Level"`
	Name     string            `json:"name" validate:"required,max=120" label:"Name"`
	Area     string            `json:"area" validate:"max=120" label:"Area"`
	Slots    map[string]string `json:"slots" validate:"dive,omitempty,objectid" label:"Slots"`
	Members  []string          `json:"members" validate:"max=500,dive,objectid" label:"Members"`
	ParentID string            `json:"parent_id" validate:"omitempty,objectid" label:"Parent team"`
}

// UpdateInput replaces a team's name, slots and members. Version, when set,
// must match the stored team.
type UpdateInput struct {
	Name    string            `json:"name" validate:"required,max=120" label:"Name"`
	Area    string            `json:"area" validate:"max=120" label:"Area"`
	Slots   map[string]string `json:"slots" validate:"dive,omitempty,objectid" label:"Slots"`
	Members []string          `json:"members" validate:"max=500,dive,objectid" label:"Members"`
	Version int64             `json:"version" validate:"min=0" label:"Version"`
}

// occupiedError carries the user whose slot claim hit the unique index. It is
// turned into faults.ErrAlreadyAssigned once the write has been rolled back.
type occupiedError struct {
	level  string
	userID primitive.ObjectID
}

func (e *occupiedError) Error() string {
	return "user " + e.userID.Hex() + " already placed at level " + e.level
}

var errVersionConflict = errors.New("team changed since it was read")

// Get loads a team.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return models.Team{}, err
	}
	return *t, nil
}

// TeamPage is one page of a team listing. Prev and Next are opaque cursors
// for the before/after parameters.
type TeamPage struct {
	Teams   []models.Team `json:"teams"`
	Prev    string        `json:"prev,omitempty"`
	Next    string        `json:"next,omitempty"`
	HasPrev bool          `json:"has_prev"`
	HasNext bool          `json:"has_next"`
}

// ListByLevel returns a page of the teams of level ordered by name.
func (s *Service) ListByLevel(ctx context.Context, level, before, after string) (TeamPage, error) {
	if _, ok := levels.Lookup(level); !ok {
		return TeamPage{}, faults.Validation("unknown team level " + level)
	}
	rows, err := s.teams.ListByLevel(ctx, level, paging.ConfigureKeyset(before, after))
	if err != nil {
		return TeamPage{}, fmt.Errorf("list teams: %w", err)
	}

	if before != "" {
		paging.Reverse(rows)
	}
	res := paging.TrimPage(&rows, before, after)
	if rows == nil {
		rows = []models.Team{}
	}
	page := TeamPage{Teams: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	prev, next := paging.BuildCursors(rows,
		func(t models.Team) string { return t.NameCI },
		func(t models.Team) primitive.ObjectID { return t.ID })
	if page.HasPrev {
		page.Prev = prev
	}
	if page.HasNext {
		page.Next = next
	}
	return page, nil
}

// CreateTeam validates in and stores a new team, optionally under a parent.
func (s *Service) CreateTeam(ctx context.Context, actor models.Actor, in TeamInput) (models.Team, error) {
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Team{}, faults.Validation(res.First())
	}
	level, ok := levels.Lookup(in.Level)
	if !ok {
		return models.Team{}, faults.Validation("unknown team level " + in.Level)
	}
	if !teampolicy.CanManageLevel(actor, level.Name) {
		return models.Team{}, faults.ErrForbidden
	}

	next := models.Team{
		ID:          primitive.NewObjectID(),
		Level:       level.Name,
		Name:        htmlsanitize.PlainText(in.Name),
		Area:        htmlsanitize.PlainText(in.Area),
		CreatedByID: actor.ID,
		UpdatedByID: actor.ID,
	}
	if next.Name == "" {
		return models.Team{}, faults.Validation("Name is required.")
	}
	var err error
	if next.Slots, err = parseSlots(in.Slots); err != nil {
		return models.Team{}, err
	}
	if next.Members, err = parseIDs(in.Members); err != nil {
		return models.Team{}, err
	}

	var parent *models.Team
	if in.ParentID != "" {
		pid, _ := primitive.ObjectIDFromHex(strings.TrimSpace(in.ParentID))
		if parent, err = s.load(ctx, pid); err != nil {
			return models.Team{}, err
		}
		if err := checkParentLevel(*parent, next); err != nil {
			return models.Team{}, err
		}
		if !teampolicy.CanAttachChild(actor, *parent) {
			return models.Team{}, faults.ErrForbidden
		}
		next.ParentID = &parent.ID
	}

	var link func(ctx context.Context, undo *txn.Undo) error
	if parent != nil {
		link = func(ctx context.Context, undo *txn.Undo) error {
			if err := s.teams.AddChild(ctx, parent.ID, next.ID); err != nil {
				return err
			}
			undo.Add(func(ctx context.Context) error { return s.teams.RemoveChild(ctx, parent.ID, next.ID) })
			return nil
		}
	}

	created, promoted, err := s.apply(ctx, level, nil, next, link)
	if err != nil {
		return models.Team{}, err
	}

	s.log.Info("team created",
		zap.String("team_id", created.ID.Hex()),
		zap.String("level", created.Level),
		zap.String("name", created.Name))
	s.audit.TeamEvent(ctx, audit.EventTeamCreated, actor.ID, created, nil, nil)
	s.auditPromotions(ctx, actor, created, promoted)
	return created, nil
}

// UpdateTeam replaces the team's name, slots and members.
func (s *Service) UpdateTeam(ctx context.Context, actor models.Actor, teamID primitive.ObjectID, in UpdateInput) (models.Team, error) {
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Team{}, faults.Validation(res.First())
	}
	old, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if !teampolicy.CanEditTeam(actor, *old) {
		return models.Team{}, faults.ErrForbidden
	}
	if in.Version != 0 && in.Version != old.Version {
		return models.Team{}, faults.ErrRaceLost
	}

	next := *old
	next.Name = htmlsanitize.PlainText(in.Name)
	next.Area = htmlsanitize.PlainText(in.Area)
	next.UpdatedByID = actor.ID
	if next.Name == "" {
		return models.Team{}, faults.Validation("Name is required.")
	}
	if next.Slots, err = parseSlots(in.Slots); err != nil {
		return models.Team{}, err
	}
	if next.Members, err = parseIDs(in.Members); err != nil {
		return models.Team{}, err
	}
	return s.update(ctx, actor, *old, next, audit.EventTeamUpdated, nil)
}

// AddMember adds userID to the team's member list. Adding a current occupant
// is a no-op.
func (s *Service) AddMember(ctx context.Context, actor models.Actor, teamID, userID primitive.ObjectID) (models.Team, error) {
	old, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if !teampolicy.CanEditTeam(actor, *old) {
		return models.Team{}, faults.ErrForbidden
	}
	if _, in := old.Occupants()[userID]; in {
		return *old, nil
	}

	next := *old
	next.Members = append(append([]primitive.ObjectID{}, old.Members...), userID)
	next.UpdatedByID = actor.ID
	return s.update(ctx, actor, *old, next, audit.EventMemberAdded, &userID)
}

// AssignSlot places userID in a named slot, displacing its previous holder.
func (s *Service) AssignSlot(ctx context.Context, actor models.Actor, teamID primitive.ObjectID, slot string, userID primitive.ObjectID) (models.Team, error) {
	old, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if !teampolicy.CanEditTeam(actor, *old) {
		return models.Team{}, faults.ErrForbidden
	}
	if old.Slots[slot] == userID {
		return *old, nil
	}

	next := *old
	next.Slots = make(map[string]primitive.ObjectID, len(old.Slots)+1)
	for k, v := range old.Slots {
		if v != userID {
			next.Slots[k] = v
		}
	}
	next.Slots[slot] = userID
	next.Members = without(old.Members, userID)
	next.UpdatedByID = actor.ID
	return s.update(ctx, actor, *old, next, audit.EventMemberAdded, &userID)
}

// RemoveMember takes userID out of the team, whether it holds a slot or is a
// plain member. Roles granted on joining are kept.
func (s *Service) RemoveMember(ctx context.Context, actor models.Actor, teamID, userID primitive.ObjectID) (models.Team, error) {
	old, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if !teampolicy.CanEditTeam(actor, *old) {
		return models.Team{}, faults.ErrForbidden
	}
	if _, in := old.Occupants()[userID]; !in {
		return models.Team{}, faults.NotFound("team member")
	}

	next := *old
	next.Slots = make(map[string]primitive.ObjectID, len(old.Slots))
	for k, v := range old.Slots {
		if v != userID {
			next.Slots[k] = v
		}
	}
	next.Members = without(old.Members, userID)
	next.UpdatedByID = actor.ID
	return s.update(ctx, actor, *old, next, audit.EventMemberRemoved, &userID)
}

// AttachChild links child under parent. A child has at most one parent;
// attaching to the current parent again is a no-op.
func (s *Service) AttachChild(ctx context.Context, actor models.Actor, parentID, childID primitive.ObjectID) (models.Team, error) {
	parent, err := s.load(ctx, parentID)
	if err != nil {
		return models.Team{}, err
	}
	child, err := s.load(ctx, childID)
	if err != nil {
		return models.Team{}, err
	}
	if err := checkParentLevel(*parent, *child); err != nil {
		return models.Team{}, err
	}
	if !teampolicy.CanAttachChild(actor, *parent) {
		return models.Team{}, faults.ErrForbidden
	}
	if child.ParentID != nil && *child.ParentID != parent.ID {
		return models.Team{}, s.alreadyLinked(ctx, child.ID)
	}

	linked := true
	err = txn.Run(ctx, s.client, s.log, func(ctx context.Context, undo *txn.Undo) error {
		ok, err := s.teams.AttachParent(ctx, child.ID, child.Level, parent.ID)
		if err != nil {
			return err
		}
		if !ok {
			linked = false
			return nil
		}
		if child.ParentID == nil {
			undo.Add(func(ctx context.Context) error { return s.teams.DetachParent(ctx, child.ID, parent.ID) })
		}
		if err := s.teams.AddChild(ctx, parent.ID, child.ID); err != nil {
			return err
		}
		undo.Add(func(ctx context.Context) error { return s.teams.RemoveChild(ctx, parent.ID, child.ID) })
		return nil
	})
	if err != nil {
		return models.Team{}, fmt.Errorf("attach child: %w", err)
	}
	if !linked {
		return models.Team{}, s.alreadyLinked(ctx, child.ID)
	}

	out, err := s.load(ctx, parent.ID)
	if err != nil {
		return models.Team{}, err
	}
	s.log.Info("child team attached",
		zap.String("team_id", parent.ID.Hex()),
		zap.String("child_id", child.ID.Hex()))
	s.audit.TeamEvent(ctx, audit.EventChildAttached, actor.ID, *out, nil,
		map[string]string{"child_id": child.ID.Hex()})
	return *out, nil
}

// DeleteTeam removes a team, frees its occupants and detaches its children.
func (s *Service) DeleteTeam(ctx context.Context, actor models.Actor, teamID primitive.ObjectID) error {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return err
	}
	if !teampolicy.CanManageLevel(actor, team.Level) {
		return faults.ErrForbidden
	}
	held, err := s.slots.ListByTeam(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	err = txn.Run(ctx, s.client, s.log, func(ctx context.Context, undo *txn.Undo) error {
		if err := s.slots.ReleaseTeam(ctx, team.ID); err != nil {
			return err
		}
		undo.Add(func(ctx context.Context) error {
			for _, h := range held {
				if err := s.slots.Claim(ctx, h.Level, h.UserID, h.TeamID, h.Slot); err != nil {
					return err
				}
			}
			return nil
		})

		if err := s.teams.DetachChildren(ctx, team.ID); err != nil {
			return err
		}
		undo.Add(func(ctx context.Context) error {
			for _, cid := range team.ChildIDs {
				if _, err := s.teams.AttachParent(ctx, cid, levelOfChild(team.Level), team.ID); err != nil {
					return err
				}
			}
			return nil
		})

		if team.ParentID != nil {
			if err := s.teams.RemoveChild(ctx, *team.ParentID, team.ID); err != nil {
				return err
			}
			undo.Add(func(ctx context.Context) error { return s.teams.AddChild(ctx, *team.ParentID, team.ID) })
		}

		if _, err := s.teams.Delete(ctx, team.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	s.log.Info("team deleted",
		zap.String("team_id", team.ID.Hex()),
		zap.String("level", team.Level),
		zap.Int("freed", len(held)))
	s.audit.TeamEvent(ctx, audit.EventTeamDeleted, actor.ID, *team, nil, nil)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Writes                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) update(ctx context.Context, actor models.Actor, old, next models.Team, event string, userID *primitive.ObjectID) (models.Team, error) {
	level, ok := levels.Lookup(old.Level)
	if !ok {
		return models.Team{}, faults.Validation("unknown team level " + old.Level)
	}
	saved, promoted, err := s.apply(ctx, level, &old, next, nil)
	if err != nil {
		return models.Team{}, err
	}

	fields := []zap.Field{
		zap.String("team_id", saved.ID.Hex()),
		zap.String("level", saved.Level),
		zap.String("event", event),
	}
	if userID != nil {
		fields = append(fields, zap.String("user_id", userID.Hex()))
	}
	s.log.Info("team updated", fields...)
	s.audit.TeamEvent(ctx, event, actor.ID, saved, userID, nil)
	s.auditPromotions(ctx, actor, saved, promoted)
	return saved, nil
}

// apply validates next and writes it together with the reverse index
// entries that changed since old (nil for a new team). extra runs inside
// the same unit of work.
func (s *Service) apply(ctx context.Context, level levels.Level, old *models.Team, next models.Team, extra func(ctx context.Context, undo *txn.Undo) error) (models.Team, []primitive.ObjectID, error) {
	if err := s.checkOccupants(ctx, level, &next); err != nil {
		return models.Team{}, nil, err
	}

	prev := map[primitive.ObjectID]string{}
	if old != nil {
		prev = old.Occupants()
	}
	cur := next.Occupants()

	var saved models.Team
	var promoted []primitive.ObjectID
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context, undo *txn.Undo) error {
		promoted = nil

		for uid, slot := range prev {
			if _, keep := cur[uid]; keep {
				continue
			}
			if err := s.slots.Release(ctx, level.Name, uid, next.ID); err != nil {
				return err
			}
			undo.Add(func(ctx context.Context) error { return s.slots.Claim(ctx, level.Name, uid, next.ID, slot) })
		}

		for uid, slot := range cur {
			was, had := prev[uid]
			switch {
			case !had:
				if err := s.slots.Claim(ctx, level.Name, uid, next.ID, slot); err != nil {
					if errors.Is(err, slotstore.ErrOccupied) {
						return &occupiedError{level: level.Name, userID: uid}
					}
					return err
				}
				undo.Add(func(ctx context.Context) error { return s.slots.Release(ctx, level.Name, uid, next.ID) })
			case was != slot:
				if err := s.slots.Move(ctx, level.Name, uid, next.ID, slot); err != nil {
					return err
				}
				undo.Add(func(ctx context.Context) error { return s.slots.Move(ctx, level.Name, uid, next.ID, was) })
			}
		}

		if level.PromoteMembers {
			for uid, slot := range cur {
				if slot != models.SlotMember {
					continue
				}
				if _, had := prev[uid]; had {
					continue
				}
				changed, err := s.users.PromoteRole(ctx, uid, models.RoleUser, models.RoleMember)
				if err != nil {
					return err
				}
				if changed {
					promoted = append(promoted, uid)
					undo.Add(func(ctx context.Context) error { return s.users.SetRole(ctx, uid, models.RoleUser) })
				}
			}
		}

		if extra != nil {
			if err := extra(ctx, undo); err != nil {
				return err
			}
		}

		if old == nil {
			t, err := s.teams.Create(ctx, next)
			if err != nil {
				return err
			}
			saved = t
			return nil
		}
		t, err := s.teams.Replace(ctx, next)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errVersionConflict
		}
		if err != nil {
			return err
		}
		saved = t
		return nil
	})
	if err != nil {
		return models.Team{}, nil, s.explain(ctx, err)
	}
	return saved, promoted, nil
}

// checkOccupants normalizes the member list and checks every referenced user
// exists and that slot occupants hold the role their slot requires.
func (s *Service) checkOccupants(ctx context.Context, level levels.Level, t *models.Team) error {
	ids := make([]primitive.ObjectID, 0, len(t.Slots)+len(t.Members))
	inSlot := make(map[primitive.ObjectID]string, len(t.Slots))
	for slot, uid := range t.Slots {
		if _, ok := level.RequiredRole(slot); !ok {
			return faults.Validation(fmt.Sprintf("%s has no %q slot", level.Title, slot))
		}
		if other, dup := inSlot[uid]; dup {
			return faults.Validation(fmt.Sprintf("a user cannot hold both the %s and %s slots", other, slot))
		}
		inSlot[uid] = slot
		ids = append(ids, uid)
	}

	seen := make(map[primitive.ObjectID]bool, len(t.Members))
	members := make([]primitive.ObjectID, 0, len(t.Members))
	for _, uid := range t.Members {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if _, ok := inSlot[uid]; ok {
			continue
		}
		members = append(members, uid)
		ids = append(ids, uid)
	}
	t.Members = members

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load team users: %w", err)
	}
	for _, uid := range ids {
		if _, ok := users[uid]; !ok {
			return faults.NotFound("user " + uid.Hex())
		}
	}
	for slot, uid := range t.Slots {
		required, _ := level.RequiredRole(slot)
		u := users[uid]
		if u.Role != required {
			return faults.ErrRoleMismatch.
				WithMessage(fmt.Sprintf("%s must hold the %s role to fill this slot", u.FullName, required)).
				WithRef(u.ID.Hex())
		}
	}
	return nil
}

// explain maps an error returned from a rolled back write. The conflicting
// team is looked up only after the rollback so the read sees committed state.
func (s *Service) explain(ctx context.Context, err error) error {
	var occ *occupiedError
	switch {
	case errors.As(err, &occ):
		h, herr := s.slots.Holder(ctx, occ.level, occ.userID)
		if errors.Is(herr, mongo.ErrNoDocuments) {
			return faults.ErrRaceLost
		}
		if herr != nil {
			return faults.ErrAlreadyAssigned
		}
		ref := h.TeamID.Hex()
		if t, terr := s.teams.GetByID(ctx, h.TeamID); terr == nil {
			ref = t.Name
		}
		return faults.ErrAlreadyAssigned.
			WithMessage(fmt.Sprintf("user already holds the %s place in another %s team", h.Slot, occ.level)).
			WithRef(ref)
	case errors.Is(err, errVersionConflict), isWriteConflict(err):
		return faults.ErrRaceLost
	case errors.Is(err, teamstore.ErrDuplicateName):
		return faults.ErrDuplicateTeam
	}
	var fe *faults.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fmt.Errorf("write team: %w", err)
}

func (s *Service) alreadyLinked(ctx context.Context, childID primitive.ObjectID) error {
	child, err := s.teams.GetByID(ctx, childID)
	if err != nil || child.ParentID == nil {
		return faults.ErrAlreadyLinked
	}
	ref := child.ParentID.Hex()
	if p, err := s.teams.GetByID(ctx, *child.ParentID); err == nil {
		ref = p.Name
	}
	return faults.ErrAlreadyLinked.WithRef(ref)
}

func (s *Service) auditPromotions(ctx context.Context, actor models.Actor, team models.Team, promoted []primitive.ObjectID) {
	for _, uid := range promoted {
		s.log.Info("user promoted on joining team",
			zap.String("team_id", team.ID.Hex()),
			zap.String("user_id", uid.Hex()),
			zap.String("role", models.RoleMember))
		s.audit.TeamEvent(ctx, audit.EventMemberPromoted, actor.ID, team, &uid,
			map[string]string{"role": models.RoleMember})
	}
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, faults.NotFound("team")
	}
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	return t, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func checkParentLevel(parent, child models.Team) error {
	l, ok := levels.Lookup(parent.Level)
	if !ok || l.Child == "" || l.Child != child.Level {
		return faults.Validation(fmt.Sprintf("a %s team cannot be placed under a %s team", child.Level, parent.Level))
	}
	return nil
}

// isWriteConflict reports a transaction that lost to a concurrent one and
// was not retried to completion.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
}

func levelOfChild(level string) string {
	l, _ := levels.Lookup(level)
	return l.Child
}

func parseSlots(in map[string]string) (map[string]primitive.ObjectID, error) {
	out := make(map[string]primitive.ObjectID, len(in))
	for slot, hex := range in {
		if strings.TrimSpace(hex) == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
		if err != nil {
			return nil, faults.Validation("slot " + slot + " must reference a valid user id")
		}
		out[slot] = id
	}
	return out, nil
}

func parseIDs(in []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(in))
	for _, hex := range in {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
		if err != nil {
			return nil, faults.Validation("members must be valid user ids")
		}
		out = append(out, id)
	}
	return out, nil
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
