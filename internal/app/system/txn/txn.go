// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports it, and falls back to compensated sequential writes
// when it does not (standalone servers, some managed offerings).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Undo collects compensating actions for the non-transactional path.
// Actions registered during a transactional attempt are discarded; the
// server rolls those writes back instead.
type Undo struct {
	fns []func(context.Context) error
}

// Add registers a compensating action. Actions run in reverse order.
func (u *Undo) Add(fn func(context.Context) error) {
	u.fns = append(u.fns, fn)
}

func (u *Undo) run(ctx context.Context, log *zap.Logger) {
	for i := len(u.fns) - 1; i >= 0; i-- {
		if err := u.fns[i](ctx); err != nil {
			log.Error("compensating write failed", zap.Int("step", i), zap.Error(err))
		}
	}
}

// Run executes fn inside a transaction on client. If the server reports that
// transactions are unsupported, fn is executed again without a session and,
// should it fail, its registered Undo actions are applied.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context, undo *Undo) error) error {
	if log == nil {
		log = zap.NewNop()
	}

	err := runInTransaction(ctx, client, fn)
	if err == nil || !IsNotSupported(err) {
		return err
	}

	log.Debug("transactions not supported; using compensated writes", zap.Error(err))

	undo := &Undo{}
	if err := fn(ctx, undo); err != nil {
		undo.run(context.WithoutCancel(ctx), log)
		return err
	}
	return nil
}

func runInTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context, undo *Undo) error) error {
	if client == nil {
		return errTransactionsUnavailable
	}
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, &Undo{})
	})
	return err
}

var errTransactionsUnavailable = errors.New("transactions not supported: no client")

// IsNotSupported reports whether err indicates the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errTransactionsUnavailable) {
		return true
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: "Transaction numbers are only allowed on a replica set member or mongos"
			51,  // legacy IllegalOperation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	// Keyword heuristics for wrapped errors from drivers/proxies. Two signals
	// are required so ordinary transaction failures are not misread.
	s := strings.ToLower(err.Error())
	signals := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(s, kw) {
			signals++
		}
	}
	return signals >= 2
}
