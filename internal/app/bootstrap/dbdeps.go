// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Runtime is allocated by ConnectDB, filled by Startup and read by
	// BuildHandler and Shutdown.
	Runtime *Runtime
}

// Runtime holds the long-lived app services built at startup.
type Runtime struct {
	Audit      *auditlog.Logger
	Reconciler *workers.Reconciler

	// CreateLimiter throttles POST /requests; nil when disabled.
	CreateLimiter *ratelimit.Limiter
}
