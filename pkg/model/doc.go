// Package model defines the GORM models for rlsnotes.
//
// # Models
//
//   - Note: a row of the notes table
//
// The notes table has row-level security enabled and forced, so every
// query through these models only sees rows owned by the identity bound to
// the current transaction.
package model
