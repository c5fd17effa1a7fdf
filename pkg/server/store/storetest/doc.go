// Package storetest holds the database-backed checks shared by every
// store backend. Each backend's integration test starts PostgreSQL with
// StartPostgres, opens a pool of exactly one connection and calls Run.
package storetest
