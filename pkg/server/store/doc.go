// Package store provides storage abstractions for the rlsnotes server.
//
// This package defines the interfaces the endpoints and the scoped
// transaction runner program against, so either database backend can be
// selected at runtime and tests can substitute mocks.
//
// # Available Stores
//
//   - NotesStore: note operations, always executed inside a scoped transaction
//   - HealthStore: database connectivity
//
// # Implementations
//
//   - pkg/server/store/gorm: GORM on the pgx v4 stdlib driver
//   - pkg/server/store/pgx: pgx/v5 pgxpool
//
// # Usage
//
//	err := runner.Run(ctx, userID, scope.OperationFetch, func(ctx context.Context, notes store.NotesStore) error {
//	    note, err = notes.FetchNote(ctx, id)
//	    return err
//	})
//	if errors.Is(err, store.ErrNoteNotFound) {
//	    // Handle not found
//	}
package store
