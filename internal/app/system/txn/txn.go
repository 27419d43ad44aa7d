// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a MongoDB multi-document transaction.
//
// WithTransaction retries the whole callback on TransientTransactionError
// (for example a write conflict with another transaction on the same
// document) and retries the commit on UnknownTransactionCommitResult, so
// fn must be safe to re-run: it must re-read everything it depends on.
//
// When the deployment cannot run transactions (standalone mongod, some
// emulators) Run logs once per call and executes fn directly with the
// caller's context. Callers that need all-or-nothing behaviour in that
// mode must compensate themselves; see Transactional.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	_, err := Transactional(ctx, db, log, func(ctx context.Context, _ bool) error {
		return fn(ctx)
	})
	return err
}

// Transactional is like Run but tells fn whether it is running inside a
// real transaction, and reports the same to the caller.
func Transactional(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context, inTxn bool) error) (bool, error) {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return false, fn(ctx, false)
		}
		return false, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, true)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return false, fn(ctx, false)
	}
	return true, err
}

func logFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	log.Warn("transactions not supported; running without transaction", zap.Error(err))
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (as opposed to a failure inside one).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: "Transaction numbers are only allowed on a replica set member or mongos"
			51,  // legacy illegal operation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
