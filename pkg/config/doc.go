// Package config provides configuration management for rlsnotes.
//
// Configuration is resolved from, in increasing precedence:
//
//   - Built-in defaults
//   - The YAML file $RLSNOTES_CONFIG_PATH/rlsnotes.yml (default /etc/rlsnotes)
//   - A dotenv file ($RLSNOTES_ENV_FILE, default .env)
//   - The process environment
//
// Every attribute remembers which source supplied it, which is what
// "rlsctl configuration show" prints.
//
// # Key Configuration Options
//
//   - DATABASE_URL: PostgreSQL connection string
//   - PORT / RLSNOTES_PORT: HTTP listen port
//   - RLSNOTES_STORE_BACKEND: gorm or pgx
//   - RLSNOTES_BINDING_KEY: transaction-scoped setting read by the RLS policies
//   - RLSNOTES_APP_ROLE: role assumed with SET LOCAL ROLE in every scoped transaction
//   - RLSNOTES_TOKEN_SECRET: HMAC key for bearer tokens
//   - RLSNOTES_LOG_LEVEL: debug, info, warn or error
//
// Watch reloads the file on change so the server can pick up a new log level
// without a restart.
package config
