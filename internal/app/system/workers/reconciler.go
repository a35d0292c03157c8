// internal/app/system/workers/reconciler.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/services/donorrecord"
	"github.com/dalemusser/bloodhub/internal/app/store/audit"
	requeststore "github.com/dalemusser/bloodhub/internal/app/store/requests"
	userstore "github.com/dalemusser/bloodhub/internal/app/store/users"
	"github.com/dalemusser/bloodhub/internal/app/system/auditlog"
	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/app/system/retry"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultSchedule runs the reconciler every five minutes.
const DefaultSchedule = "*/5 * * * *"

// DefaultGrace is how old a processing marker must be before the reconciler
// looks at it. Younger markers may belong to a claim that is still running.
const DefaultGrace = 2 * time.Minute

// batchSize bounds the markers handled per run.
const batchSize = 500

// Reconciler repairs donor processing markers left behind when a request
// transition and the matching donor write did not both complete.
//
// For each marker older than the grace period:
//   - request processing by this donor: left alone
//   - request fulfilled by this donor: the donation is recorded (which also
//     clears the marker)
//   - anything else, including a missing request: the marker is released
type Reconciler struct {
	users    *userstore.Store
	requests *requeststore.Store
	donors   *donorrecord.Updater
	audit    *auditlog.Logger
	log      *zap.Logger
	grace    time.Duration
	now      func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

// Result counts the repairs made by one run.
type Result struct {
	Checked  int
	Released int
	Repaired int
}

// NewReconciler builds a Reconciler scheduled with spec (standard five-field
// cron syntax or a descriptor such as "@every 1m"). An empty spec uses
// DefaultSchedule and a non-positive grace uses DefaultGrace.
func NewReconciler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger, spec string, grace time.Duration) (*Reconciler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	w := &Reconciler{
		users:    userstore.New(db),
		requests: requeststore.New(db),
		donors:   donorrecord.New(db),
		audit:    audit,
		log:      logger,
		grace:    grace,
		now:      time.Now,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := w.cron.AddFunc(spec, w.tick); err != nil {
		return nil, err
	}
	return w, nil
}

// ValidateSchedule reports whether spec is accepted by NewReconciler.
func ValidateSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// Start begins running on the schedule.
func (w *Reconciler) Start() {
	w.cron.Start()
	w.log.Info("donor reconciler started", zap.Duration("grace", w.grace))
}

// Stop stops the schedule and waits for a running pass to finish.
func (w *Reconciler) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info("donor reconciler stopped")
}

func (w *Reconciler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := w.RunOnce(ctx)
	if err != nil {
		w.log.Error("donor reconcile failed", zap.Error(err))
		return
	}
	if res.Released > 0 || res.Repaired > 0 {
		w.log.Info("donor reconcile repaired markers",
			zap.Int("checked", res.Checked),
			zap.Int("released", res.Released),
			zap.Int("repaired", res.Repaired))
	}
}

// RunOnce performs a single reconciliation pass. Passes never overlap.
func (w *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res Result
	var stale []userstore.Reservation
	cutoff := w.now().UTC().Add(-w.grace)
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		stale, err = w.users.ListReservations(ctx, cutoff, batchSize)
		return err
	})
	if err != nil {
		return res, err
	}

	for _, m := range stale {
		res.Checked++
		action, err := w.reconcile(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			w.log.Warn("reconcile marker failed",
				zap.String("donor_id", m.UserID.Hex()),
				zap.String("request_id", m.RequestID.Hex()),
				zap.Error(err))
			continue
		}
		switch action {
		case audit.EventReservationFree:
			res.Released++
		case audit.EventDonationRepair:
			res.Repaired++
		}
	}
	return res, nil
}

// reconcile handles one marker and returns the audit event type of the repair
// made, or "" when the marker was left alone.
func (w *Reconciler) reconcile(ctx context.Context, m userstore.Reservation) (string, error) {
	var req *models.DonationRequest
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		req, err = w.requests.GetByID(ctx, m.RequestID)
		return err
	})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	if req != nil {
		if req.Status == models.RequestProcessing && sameID(req.ProcessingDonorID, m.UserID) {
			return "", nil
		}
		if req.Status == models.RequestFulfilled && sameID(req.FulfillingDonorID, m.UserID) {
			day := w.now()
			if req.FulfilledOn != nil {
				day = *req.FulfilledOn
			}
			if err := w.donors.RecordDonation(ctx, m.UserID, m.RequestID, day); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					// Marker moved on since it was listed.
					return "", nil
				}
				return "", err
			}
			w.audit.Maintenance(ctx, audit.EventDonationRepair, m.RequestID, m.UserID, map[string]string{
				"donation_date": dates.Format(day),
			})
			return audit.EventDonationRepair, nil
		}
	}

	released, err := w.users.ReleaseDonor(ctx, m.UserID, m.RequestID)
	if err != nil || !released {
		return "", err
	}
	details := map[string]string{"request_status": "missing"}
	if req != nil {
		details["request_status"] = req.Status
	}
	w.audit.Maintenance(ctx, audit.EventReservationFree, m.RequestID, m.UserID, details)
	return audit.EventReservationFree, nil
}

func sameID(p *primitive.ObjectID, id primitive.ObjectID) bool {
	return p != nil && *p == id
}
