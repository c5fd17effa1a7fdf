// Command rlsctl runs the rlsnotes server, a notes API whose row visibility is
// decided by PostgreSQL row-level security.
//
// Every request runs in its own transaction. The caller's user id is bound with
// set_config(..., true) for that transaction only, and the policies on the
// notes table compare it with each row's owner.
//
// # Quick Start
//
//	export DATABASE_URL=postgres://postgres@localhost:5432/rlsnotes?sslmode=disable
//	export RLSNOTES_TOKEN_SECRET=change-me
//
//	# Create the schema
//	rlsctl db migrate
//
//	# Start the server
//	rlsctl server
//
//	# Mint a token for user 1 and list their notes
//	TOKEN=$(rlsctl token issue 1)
//	curl -H "Authorization: Bearer $TOKEN" localhost:8000/notes
//
// # Configuration
//
// Settings come from /etc/rlsnotes/rlsnotes.yml (or RLSNOTES_CONFIG_PATH),
// then a dotenv file, then the environment. Run "rlsctl configuration show"
// to see every value and where it came from.
//
//   - DATABASE_URL: PostgreSQL connection string
//   - RLSNOTES_TOKEN_SECRET: HMAC key for bearer tokens
//   - RLSNOTES_STORE_BACKEND: gorm (default) or pgx
//   - RLSNOTES_LOG_LEVEL: debug, info, warn, error
//   - PORT: server port (default: 8000)
package main
