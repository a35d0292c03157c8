// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration, which covers ports, TLS,
// log level and the like.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration. Sessions are issued by the sign-in
	// service; this app only reads them, so the key must match.
	SessionKey    string
	SessionName   string // Cookie name for sessions (default: bloodhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Browser origins allowed to call the API with credentials; empty
	// disables CORS handling.
	CORSAllowedOrigins []string

	// Request display ids
	DisplayIDMaxAttempts int // Candidates tried before giving up with id_space_exhausted

	// Request creation throttle (per signed-in user); zero limit disables it
	CreateRequestLimit  int
	CreateRequestWindow time.Duration

	// Donor marker reconciliation
	ReconcileSchedule string        // cron spec, e.g. "*/5 * * * *" or "@every 1m"
	ReconcileGrace    time.Duration // Minimum marker age before it is repaired

	// Audit logging mode: all, db, log or off
	AuditLog string

	// Operation timeouts (zero keeps the built-in default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
