package audit

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true)
	logger.SetWriter(&buf)

	event := ScopeEvent{
		UserID:    42,
		ClientIP:  "192.168.1.1",
		Operation: "create",
		Phase:     "committed",
		Duration:  15 * time.Millisecond,
		Success:   true,
	}

	logger.Log(context.Background(), event)

	output := buf.String()

	// PRI = authpriv(10) * 8 + info(6)
	if !strings.HasPrefix(output, "<86>1 ") {
		t.Errorf("Expected PRI <86> and version 1, got %q", output)
	}
	if !strings.Contains(output, " rlsnotes ") {
		t.Error("Expected app name 'rlsnotes' in output")
	}
	if !strings.Contains(output, " scope ") {
		t.Error("Expected message ID 'scope' in output")
	}
	if !strings.Contains(output, `user="42"`) {
		t.Error("Expected user id in output")
	}
	if !strings.Contains(output, `phase="committed"`) {
		t.Error("Expected phase in output")
	}
	if !strings.HasSuffix(output, "user 42 completed create\n") {
		t.Errorf("Expected success message at end of line, got %q", output)
	}
}

func TestLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false)
	logger.SetWriter(&buf)

	logger.Log(context.Background(), ScopeEvent{UserID: 1, Operation: "list", Success: true})

	if buf.Len() != 0 {
		t.Errorf("Expected no output from a disabled logger, got %q", buf.String())
	}
	if Discard().Enabled() {
		t.Error("Discard() should not be enabled")
	}
}

func TestFormatStructuredDataIsSorted(t *testing.T) {
	sd := map[string]map[string]string{
		"b@1": {"z": "1", "a": "2"},
		"a@1": {"k": `q"]\`},
	}

	got := formatStructuredData(sd)
	want := `[a@1 k="q\"\]\\"][b@1 a="2" z="1"]`
	if got != want {
		t.Errorf("formatStructuredData() = %q, want %q", got, want)
	}
	if formatStructuredData(nil) != "" {
		t.Error("Expected empty structured data for nil map")
	}
}

func TestScopeEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     ScopeEvent
		wantMsg   string
		wantSev   Severity
		wantPhase string
	}{
		{
			name: "committed",
			event: ScopeEvent{
				UserID:    1,
				Operation: "list",
				Phase:     "committed",
				Success:   true,
			},
			wantMsg:   "user 1 completed list",
			wantSev:   SeverityInfo,
			wantPhase: "committed",
		},
		{
			name: "rolled back",
			event: ScopeEvent{
				UserID:       1,
				Operation:    "create",
				Phase:        "operationexecuting",
				Success:      false,
				ErrorMessage: "new row violates row-level security policy",
			},
			wantMsg:   "failed create during operationexecuting: new row violates",
			wantSev:   SeverityWarning,
			wantPhase: "operationexecuting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != FacilityAuthPriv {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), FacilityAuthPriv)
			}
			sd := tt.event.StructuredData()
			if sd[SDIDScope]["phase"] != tt.wantPhase {
				t.Errorf("phase = %q, want %q", sd[SDIDScope]["phase"], tt.wantPhase)
			}
			if _, ok := sd[SDIDClient]["request"]; ok {
				t.Error("request id should be omitted when empty")
			}
		})
	}
}

func TestAuthenticateEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     AuthenticateEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name: "successful authentication",
			event: AuthenticateEvent{
				Subject:           "7",
				ClientIP:          "10.0.0.1",
				AuthenticatorName: "bearer",
				Success:           true,
			},
			wantMsg:   "7 successfully authenticated",
			wantSev:   SeverityInfo,
			wantMsgID: "authn",
		},
		{
			name: "failed authentication",
			event: AuthenticateEvent{
				ClientIP:          "10.0.0.1",
				AuthenticatorName: "bearer",
				Success:           false,
				ErrorMessage:      "invalid token",
			},
			wantMsg:   "anonymous failed to authenticate with authenticator bearer: invalid token",
			wantSev:   SeverityWarning,
			wantMsgID: "authn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestWhoamiEvent(t *testing.T) {
	event := WhoamiEvent{
		UserID:   3,
		Binding:  "3",
		ClientIP: "10.0.0.1",
		Success:  true,
	}

	if event.MessageID() != "identity-check" {
		t.Errorf("MessageID() = %v, want 'identity-check'", event.MessageID())
	}
	if event.Facility() != FacilityAuth {
		t.Errorf("Facility() = %v, want FacilityAuth", event.Facility())
	}
	if got := event.StructuredData()[SDIDSubject]["binding"]; got != "3" {
		t.Errorf("binding = %q, want '3'", got)
	}
}
