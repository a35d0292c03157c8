// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	donorsfeature "github.com/dalemusser/bloodhub/internal/app/features/donors"
	healthfeature "github.com/dalemusser/bloodhub/internal/app/features/health"
	requestsfeature "github.com/dalemusser/bloodhub/internal/app/features/requests"
	teamsfeature "github.com/dalemusser/bloodhub/internal/app/features/teams"
	"github.com/dalemusser/bloodhub/internal/app/services/hierarchy"
	"github.com/dalemusser/bloodhub/internal/app/services/requestflow"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/auth"
	"github.com/dalemusser/bloodhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. BloodHub is a JSON API: it reads the
// session cookie issued by the sign-in service, tags every request with a
// correlation id for the audit trail, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	var (
		audit   *auditlog.Logger
		limiter *ratelimit.Limiter
	)
	if deps.Runtime != nil {
		audit = deps.Runtime.Audit
		limiter = deps.Runtime.CreateLimiter
	}

	requestSvc := requestflow.New(deps.MongoDatabase, audit, logger, requestflow.Options{
		DisplayIDAttempts: appCfg.DisplayIDMaxAttempts,
	})
	hierarchySvc := hierarchy.New(deps.MongoDatabase, audit, logger)

	r := chi.NewRouter()

	// Correlation ids first so every audit event of a request shares one.
	r.Use(auditlog.Correlate)

	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", auditlog.CorrelationHeader},
			ExposedHeaders:   []string{auditlog.CorrelationHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Donation requests
	requestsHandler := requestsfeature.NewHandler(requestSvc, logger)
	r.Mount("/requests", requestsfeature.Routes(requestsHandler, sessionMgr, ratelimit.PerCaller(limiter, logger)))

	// Donor eligibility
	donorsHandler := donorsfeature.NewHandler(requestSvc, logger)
	r.Mount("/donors", donorsfeature.Routes(donorsHandler, sessionMgr))

	// Volunteer hierarchy
	teamsHandler := teamsfeature.NewHandler(hierarchySvc, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

	return r, nil
}
