// Package scope runs data operations inside a transaction that carries the
// caller's identity.
//
// A pooled connection outlives the request that borrowed it, so identity is
// never attached to the connection. Instead each Runner.Run call:
//
//  1. opens a transaction (PhaseStart),
//  2. binds the user id with set_config(key, id, true), optionally assuming
//     a non-privileged role with SET LOCAL ROLE (PhaseBindingSet),
//  3. executes exactly one guarded operation (PhaseOperationExecuting),
//  4. commits (PhaseCommitted), or rolls back on any failure, panic or
//     cancellation (PhaseRolledBack).
//
// The binding and role end with the transaction in both outcomes, so the
// next borrower of the connection starts with no identity at all.
//
// Failures are reported as *Failure. Its message is always "operation
// failed"; the phase and cause are kept for logs and the audit trail.
//
//	err := runner.Run(ctx, id.UserID, scope.OperationCreate, func(ctx context.Context, notes store.NotesStore) error {
//	    created, err = notes.CreateNote(ctx, input)
//	    return err
//	})
//	if errors.Is(err, scope.ErrOperationFailed) {
//	    // respond with a generic error
//	}
package scope
