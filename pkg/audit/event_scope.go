package audit

import (
	"fmt"
	"strconv"
	"time"
)

// ScopeEvent records one scoped transaction run
type ScopeEvent struct {
	UserID       int64
	ClientIP     string
	RequestID    string
	Operation    string
	Phase        string
	Duration     time.Duration
	Success      bool
	ErrorMessage string
}

func (e ScopeEvent) MessageID() string {
	return "scope"
}

func (e ScopeEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("user %d completed %s", e.UserID, e.Operation)
	}
	msg := fmt.Sprintf("user %d failed %s during %s", e.UserID, e.Operation, e.Phase)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ScopeEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ScopeEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ScopeEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": strconv.FormatInt(e.UserID, 10),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
		SDIDScope: {
			"phase":       e.Phase,
			"duration_ms": strconv.FormatInt(e.Duration.Milliseconds(), 10),
		},
	}
	if e.RequestID != "" {
		sd[SDIDClient]["request"] = e.RequestID
	}
	return sd
}
