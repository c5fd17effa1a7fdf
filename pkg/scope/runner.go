package scope

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Runner executes one guarded operation per transaction with the caller's
// identity bound for exactly that transaction
type Runner struct {
	beginner Beginner
	log      *zap.SugaredLogger
	audit    *audit.Logger
	timeout  time.Duration
	onPhase  func(Operation, Phase)
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger for run outcomes
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Runner) { r.log = log }
}

// WithAudit records a scope event for every run
func WithAudit(a *audit.Logger) Option {
	return func(r *Runner) { r.audit = a }
}

// WithTimeout bounds each run; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithPhaseHook is called on every phase transition
func WithPhaseHook(fn func(Operation, Phase)) Option {
	return func(r *Runner) { r.onPhase = fn }
}

// NewRunner creates a Runner over b
func NewRunner(b Beginner, opts ...Option) *Runner {
	r := &Runner{
		beginner: b,
		log:      zap.NewNop().Sugar(),
		audit:    audit.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens a transaction, binds userID, calls fn once with the
// transaction's store and commits. fn receives the run's context, which
// carries the configured timeout. Any error in binding, in fn or in
// commit rolls the transaction back; so does a panic in fn, which is
// re-raised after rollback. Teardown uses a context that is never
// cancelled so the rollback is issued even after the caller gave up.
//
// Every returned error is a *Failure matching ErrOperationFailed.
func (r *Runner) Run(ctx context.Context, userID int64, op Operation, fn func(context.Context, store.NotesStore) error) (err error) {
	started := time.Now()
	phase := PhaseStart
	enter := func(next Phase) {
		phase = next
		if r.onPhase != nil {
			r.onPhase(op, next)
		}
	}
	enter(PhaseStart)
	defer func() {
		r.record(ctx, userID, op, phase, time.Since(started), err)
	}()

	if userID <= 0 {
		return newFailure(op, PhaseStart, ErrInvalidIdentity)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, beginErr := r.beginner.Begin(ctx)
	if beginErr != nil {
		return newFailure(op, PhaseStart, fmt.Errorf("begin: %w", beginErr))
	}

	defer func() {
		if phase == PhaseCommitted {
			return
		}
		p := recover()
		if p != nil {
			err = newFailure(op, phase, fmt.Errorf("panic: %v", p))
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			r.log.Warnw("scoped rollback failed", "operation", op.String(), "user_id", userID, "error", rbErr)
		}
		enter(PhaseRolledBack)
		if p != nil {
			panic(p)
		}
	}()

	if bindErr := tx.Bind(ctx, userID); bindErr != nil {
		return newFailure(op, phase, fmt.Errorf("bind: %w", bindErr))
	}
	enter(PhaseBindingSet)

	enter(PhaseOperationExecuting)
	if opErr := fn(ctx, tx.Notes()); opErr != nil {
		return newFailure(op, phase, opErr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return newFailure(op, phase, ctxErr)
	}
	if commitErr := tx.Commit(ctx); commitErr != nil {
		return newFailure(op, phase, fmt.Errorf("commit: %w", commitErr))
	}
	enter(PhaseCommitted)
	return nil
}

// Query runs fn like Runner.Run and returns its value on success
func Query[T any](ctx context.Context, r *Runner, userID int64, op Operation, fn func(context.Context, store.NotesStore) (T, error)) (T, error) {
	var out T
	err := r.Run(ctx, userID, op, func(ctx context.Context, notes store.NotesStore) error {
		v, err := fn(ctx, notes)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (r *Runner) record(ctx context.Context, userID int64, op Operation, final Phase, elapsed time.Duration, err error) {
	event := audit.ScopeEvent{
		UserID:    userID,
		Operation: op.String(),
		Phase:     final.String(),
		Duration:  elapsed,
		Success:   err == nil,
		ClientIP:  "-",
	}
	if id, ok := identity.Get(ctx); ok {
		event.ClientIP = id.ClientIP()
		event.RequestID = id.RequestID
	}

	fields := []interface{}{
		"operation", event.Operation,
		"user_id", userID,
		"phase", event.Phase,
		"duration", elapsed,
	}
	if event.RequestID != "" {
		fields = append(fields, "request_id", event.RequestID)
	}

	switch {
	case err == nil && op.Mutates():
		r.log.Infow("scoped operation committed", fields...)
	case err == nil:
		r.log.Debugw("scoped operation committed", fields...)
	default:
		if f, ok := AsFailure(err); ok {
			event.Phase = f.Phase.String()
			event.ErrorMessage = f.Err.Error()
			fields = append(fields, "failed_phase", event.Phase, "final_phase", final.String(), "error", f.Err)
		}
		// A run that never reached a terminal phase never opened a transaction
		if final.Terminal() {
			r.log.Infow("scoped operation rolled back", fields...)
		} else {
			r.log.Infow("scoped operation rejected", fields...)
		}
	}

	r.audit.Log(ctx, event)
}
