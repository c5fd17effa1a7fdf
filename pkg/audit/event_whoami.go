package audit

import (
	"fmt"
	"strconv"
)

// WhoamiEvent represents a whoami audit event
type WhoamiEvent struct {
	UserID   int64
	Binding  string
	ClientIP string
	Success  bool
}

func (e WhoamiEvent) MessageID() string {
	return "identity-check"
}

func (e WhoamiEvent) Message() string {
	return fmt.Sprintf("user %d checked its identity using whoami", e.UserID)
}

func (e WhoamiEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e WhoamiEvent) Facility() int {
	return FacilityAuth
}

func (e WhoamiEvent) StructuredData() map[string]map[string]string {
	user := strconv.FormatInt(e.UserID, 10)
	return map[string]map[string]string{
		SDIDSubject: {
			"binding": e.Binding,
		},
		SDIDAuth: {
			"user": user,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "check",
			"result":    result(e.Success),
		},
	}
}
