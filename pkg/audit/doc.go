// Package audit writes an RFC5424 audit trail for rlsnotes.
//
// Every scoped transaction produces a "scope" event naming the caller, the
// operation, the phase it ended in and whether it committed. Token checks
// produce "authn" events and /whoami produces "identity-check" events.
//
// # Usage
//
//	auditLog := audit.NewLogger(cfg.IsAuditEnabled())
//	auditLog.SetStore(audit.NewStore(sqlDB))
//	auditLog.Log(ctx, audit.ScopeEvent{UserID: 1, Operation: "create", Success: true})
//
// Lines go to stdout. When a Store is attached the same events are also
// inserted into the audit_messages table, which has no row-level policy.
package audit
