// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/eligibility"
	"github.com/dalemusser/bloodhub/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodhub/internal/app/system/timeouts"
	"github.com/dalemusser/bloodhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: timeouts
// are applied, the audit logger is built and the reconciler is started.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("bloodhub settings",
		zap.Int("donation_cooldown_days", eligibility.CooldownDays),
		zap.Int("display_id_max_attempts", appCfg.DisplayIDMaxAttempts),
		zap.String("audit_log", appCfg.AuditLog),
		zap.Int("create_request_limit", appCfg.CreateRequestLimit),
		zap.Duration("create_request_window", appCfg.CreateRequestWindow),
		zap.Duration("timeout_short", cur.Short),
		zap.Duration("timeout_medium", cur.Medium),
		zap.Duration("timeout_long", cur.Long))

	return startRuntime(deps, appCfg, logger)
}

// startRuntime builds the audit logger and the request throttle and starts
// the reconciler.
func startRuntime(deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	if deps.Runtime == nil {
		return errors.New("bootstrap: runtime not allocated")
	}
	deps.Runtime.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Uniform(appCfg.AuditLog))

	rec, err := workers.NewReconciler(deps.MongoDatabase, deps.Runtime.Audit, logger, appCfg.ReconcileSchedule, appCfg.ReconcileGrace)
	if err != nil {
		return err
	}
	if appCfg.CreateRequestLimit > 0 {
		deps.Runtime.CreateLimiter = ratelimit.New(appCfg.CreateRequestLimit, appCfg.CreateRequestWindow)
	}
	rec.Start()
	deps.Runtime.Reconciler = rec
	return nil
}

// stopRuntime stops the reconciler, waiting for a running pass, and the
// throttle's cleanup loop.
func stopRuntime(deps DBDeps) {
	if deps.Runtime == nil {
		return
	}
	if deps.Runtime.Reconciler != nil {
		deps.Runtime.Reconciler.Stop()
		deps.Runtime.Reconciler = nil
	}
	if deps.Runtime.CreateLimiter != nil {
		deps.Runtime.CreateLimiter.Stop()
		deps.Runtime.CreateLimiter = nil
	}
}
