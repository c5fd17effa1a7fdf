// Package authenticator verifies the bearer tokens that identify callers.
//
// Tokens are HS256 JWTs signed with the configured token_secret. The subject
// claim carries the numeric user id that the scoped transaction runner binds
// for the lifetime of each request's transaction; issuer and expiry are
// always checked.
//
//	auth, err := authenticator.NewToken(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenLifetime())
//	token, expiresAt, err := auth.Issue(42, 0)
//	id, err := auth.Authenticate(ctx, token)
//
// The rlsctl "token issue" command uses the same Issue path.
package authenticator
