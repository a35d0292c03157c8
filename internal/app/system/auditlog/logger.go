// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Logging modes, per category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	Requests    string
	Hierarchy   string
	Maintenance string
}

// Uniform returns a Config using mode for every category.
func Uniform(mode string) Config {
	return Config{Requests: mode, Hierarchy: mode, Maintenance: mode}
}

// Logger writes audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

type correlationKey struct{}

// WithCorrelationID returns ctx carrying id. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.String("entity_id", event.EntityID.Hex()),
		zap.Bool("success", event.Success),
	}
	if event.EntityRef != "" {
		fields = append(fields, zap.String("entity_ref", event.EntityRef))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", event.CorrelationID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so services can be built without auditing in tests.
// Store failures are logged and swallowed: an audit write never fails the
// operation it describes.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryRequests:
		setting = l.config.Requests
	case audit.CategoryHierarchy:
		setting = l.config.Hierarchy
	case audit.CategoryMaintenance:
		setting = l.config.Maintenance
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if event.CorrelationID == "" {
		event.CorrelationID = CorrelationID(ctx)
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to write audit event to database",
				zap.String("event_type", event.EventType),
				zap.Error(err))
		}
	}
}

// RequestEvent records a lifecycle transition of req.
func (l *Logger) RequestEvent(ctx context.Context, eventType string, actorID primitive.ObjectID, req models.DonationRequest, donorID *primitive.ObjectID, details map[string]string) {
	if l == nil {
		return
	}
	if details == nil {
		details = map[string]string{}
	}
	details["status"] = req.Status
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRequests,
		EventType: eventType,
		EntityID:  req.ID,
		EntityRef: req.DisplayID,
		ActorID:   actorPtr(actorID),
		UserID:    donorID,
		Success:   true,
		Details:   details,
	})
}

// TeamEvent records a hierarchy change on team.
func (l *Logger) TeamEvent(ctx context.Context, eventType string, actorID primitive.ObjectID, team models.Team, userID *primitive.ObjectID, details map[string]string) {
	if l == nil {
		return
	}
	if details == nil {
		details = map[string]string{}
	}
	details["level"] = team.Level
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryHierarchy,
		EventType: eventType,
		EntityID:  team.ID,
		EntityRef: team.Name,
		ActorID:   actorPtr(actorID),
		UserID:    userID,
		Success:   true,
		Details:   details,
	})
}

// Maintenance records a repair made by a background worker.
func (l *Logger) Maintenance(ctx context.Context, eventType string, entityID, userID primitive.ObjectID, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMaintenance,
		EventType: eventType,
		EntityID:  entityID,
		UserID:    &userID,
		Success:   true,
		Details:   details,
	})
}

func actorPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}
