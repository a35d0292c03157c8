package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an approved, never-donated user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		BloodGroup: "O+",
		District:   "Dhaka",
		Upazila:    "Savar",
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateDonor creates an approved donor whose last donation was daysAgo days
// before today. A negative daysAgo means the donor never donated.
func (f *Fixtures) CreateDonor(ctx context.Context, fullName string, daysAgo int) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(fullName) + "@donors.test",
		Role:       models.RoleUser,
		Status:     "active",
		BloodGroup: "A+",
		District:   "Dhaka",
		Upazila:    "Savar",
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if daysAgo >= 0 {
		last := dates.AddDays(now, -daysAgo)
		next := dates.AddDays(last, 120)
		user.LastDonationAt = &last
		user.NextEligibleAt = &next
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test donor: %v", err)
	}
	return user
}

// CreateBannedDonor creates a donor flagged as banned.
func (f *Fixtures) CreateBannedDonor(ctx context.Context, fullName string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(fullName) + "@donors.test",
		Role:       models.RoleUser,
		Status:     "active",
		BloodGroup: "B+",
		IsBanned:   true,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create banned donor: %v", err)
	}
	return user
}

// CreateRequest creates a pending donation request owned by requesterID.
func (f *Fixtures) CreateRequest(ctx context.Context, requesterID primitive.ObjectID, displayID string) models.DonationRequest {
	f.t.Helper()

	now := time.Now().UTC()
	req := models.DonationRequest{
		ID:            primitive.NewObjectID(),
		DisplayID:     displayID,
		BloodGroup:    "A+",
		UnitsNeeded:   1,
		HospitalName:  "Dhaka Medical College Hospital",
		District:      "Dhaka",
		Upazila:       "Savar",
		ContactNumber: "01700000000",
		RequesterID:   requesterID,
		Status:        models.RequestPending,
		UpdatedByID:   requesterID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("donation_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test request: %v", err)
	}
	return req
}

// CreateTeam inserts a team document directly, without touching the
// hierarchy_slots reverse index.
func (f *Fixtures) CreateTeam(ctx context.Context, level, name string, slots map[string]primitive.ObjectID, members []primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	if slots == nil {
		slots = map[string]primitive.ObjectID{}
	}
	if members == nil {
		members = []primitive.ObjectID{}
	}
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Level:     level,
		Name:      name,
		NameCI:    text.Fold(name),
		Slots:     slots,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}
