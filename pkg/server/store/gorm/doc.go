// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package, plus a scope.Beginner that opens
// identity-bound transactions.
//
// The identity is bound with SELECT set_config(key, id, true) and the
// application role is assumed with SET LOCAL ROLE, so both are discarded
// when the transaction ends and the pooled connection goes back clean.
package gorm
