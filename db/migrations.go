// Package db holds the SQL migrations embedded into the rlsctl binary.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
