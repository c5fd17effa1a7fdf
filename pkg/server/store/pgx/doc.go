// Package pgx provides pgx/v5 implementations of the store interfaces
// defined in the parent store package, plus a scope.Beginner over a
// pgxpool.Pool.
//
// It mirrors the gorm package statement for statement; the two backends
// are interchangeable and selected with the store_backend setting.
package pgx
