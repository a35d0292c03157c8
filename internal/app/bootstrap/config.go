// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/displayid"
	"github.com/dalemusser/bloodhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for BloodHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BLOODHUB_MONGO_URI, BLOODHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "bloodhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "bloodhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Cross-origin browser clients
	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call the API (blank disables CORS)"},

	// Request display ids
	{Name: "display_id_max_attempts", Default: displayid.DefaultMaxAttempts, Desc: "Display id candidates tried before failing"},

	// Request creation throttle
	{Name: "create_request_limit", Default: 20, Desc: "Requests one user may create per window (0 disables)"},
	{Name: "create_request_window", Default: "1m", Desc: "Window for create_request_limit"},

	// Donor marker reconciliation
	{Name: "reconcile_schedule", Default: workers.DefaultSchedule, Desc: "Cron spec for the donor marker reconciler"},
	{Name: "reconcile_grace", Default: "2m", Desc: "Minimum age of a donor marker before it is repaired"},

	// Audit logging
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "", Desc: "Timeout for single-document reads (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for request transitions (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Timeout for hierarchy writes (e.g., 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// BLOODHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BLOODHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		DisplayIDMaxAttempts: appValues.Int("display_id_max_attempts"),

		CreateRequestLimit:  appValues.Int("create_request_limit"),
		CreateRequestWindow: appValues.Duration("create_request_window", time.Minute),

		ReconcileSchedule: appValues.String("reconcile_schedule"),
		ReconcileGrace:    appValues.Duration("reconcile_grace", workers.DefaultGrace),

		AuditLog: appValues.String("audit_log"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if appCfg.SessionKey == "" {
		return errors.New("session_key is required")
	}
	for _, origin := range appCfg.CORSAllowedOrigins {
		if origin == "*" {
			return errors.New("cors_allowed_origins must list origins; '*' cannot be used with session cookies")
		}
	}
	if appCfg.DisplayIDMaxAttempts <= 0 {
		return fmt.Errorf("display_id_max_attempts must be positive, got %d", appCfg.DisplayIDMaxAttempts)
	}
	if appCfg.CreateRequestLimit < 0 {
		return errors.New("create_request_limit must not be negative")
	}
	if appCfg.CreateRequestLimit > 0 && appCfg.CreateRequestWindow <= 0 {
		return errors.New("create_request_window must be positive when create_request_limit is set")
	}
	if err := workers.ValidateSchedule(appCfg.ReconcileSchedule); err != nil {
		return fmt.Errorf("invalid reconcile_schedule %q: %w", appCfg.ReconcileSchedule, err)
	}
	if appCfg.ReconcileGrace < 0 {
		return errors.New("reconcile_grace must not be negative")
	}
	switch appCfg.AuditLog {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log must be one of all, db, log, off; got %q", appCfg.AuditLog)
	}
	for name, d := range map[string]time.Duration{
		"timeout_short":  appCfg.TimeoutShort,
		"timeout_medium": appCfg.TimeoutMedium,
		"timeout_long":   appCfg.TimeoutLong,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
