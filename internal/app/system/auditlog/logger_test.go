package auditlog_test

import (
	"context"
	"testing"

	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.RequestEvent(ctx, audit.EventRequestClaimed, primitive.NewObjectID(), models.DonationRequest{}, nil, nil)
	logger.TeamEvent(ctx, audit.EventTeamCreated, primitive.NewObjectID(), models.Team{}, nil, nil)
}

func TestLogger_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Uniform(auditlog.ModeOff))

	req := models.DonationRequest{ID: primitive.NewObjectID(), DisplayID: "1234567890", Status: models.RequestProcessing}
	logger.RequestEvent(ctx, audit.EventRequestClaimed, primitive.NewObjectID(), req, nil, nil)

	events, err := store.ForEntity(ctx, req.ID, 10)
	if err != nil {
		t.Fatalf("ForEntity failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events when config is 'off', got %d", len(events))
	}
}

func TestLogger_ConfigDB_StoresCorrelationID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Uniform(auditlog.ModeDB))

	ctx = auditlog.WithCorrelationID(ctx, "corr-123")
	req := models.DonationRequest{ID: primitive.NewObjectID(), DisplayID: "1234567890", Status: models.RequestFulfilled}
	donor := primitive.NewObjectID()
	logger.RequestEvent(ctx, audit.EventRequestFulfilled, primitive.NewObjectID(), req, &donor, nil)

	events, err := store.ForEntity(ctx, req.ID, 10)
	if err != nil {
		t.Fatalf("ForEntity failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.CorrelationID != "corr-123" {
		t.Errorf("CorrelationID = %q, want corr-123", ev.CorrelationID)
	}
	if ev.Details["status"] != models.RequestFulfilled {
		t.Errorf("status detail = %q", ev.Details["status"])
	}
	if ev.UserID == nil || *ev.UserID != donor {
		t.Errorf("UserID = %v, want %v", ev.UserID, donor)
	}
}

func TestLogger_ConfigLog_WritesZapOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Uniform(auditlog.ModeLog))

	team := models.Team{ID: primitive.NewObjectID(), Level: "upazila", Name: "Savar"}
	logger.TeamEvent(context.Background(), audit.EventTeamCreated, primitive.NewObjectID(), team, nil, nil)

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["entity_ref"]; got != "Savar" {
		t.Errorf("entity_ref = %v, want Savar", got)
	}
}

func TestWithCorrelationID_GeneratesWhenEmpty(t *testing.T) {
	ctx := auditlog.WithCorrelationID(context.Background(), "")
	if auditlog.CorrelationID(ctx) == "" {
		t.Fatal("expected a generated correlation id")
	}
}
