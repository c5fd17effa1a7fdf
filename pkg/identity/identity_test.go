package identity

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name   string
		sub    string
		wantID int64
		wantOK bool
	}{
		{name: "positive id", sub: "42", wantID: 42, wantOK: true},
		{name: "zero", sub: "0", wantOK: false},
		{name: "negative", sub: "-3", wantOK: false},
		{name: "not a number", sub: "alice", wantOK: false},
		{name: "empty", sub: "", wantOK: false},
		{name: "overflow", sub: "99999999999999999999", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseSubject(tt.sub)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIdentity_WithMethods(t *testing.T) {
	ip := net.ParseIP("192.168.1.100")
	id := New(7).WithRemoteIP(ip).WithRequestID("req-1")

	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "7", id.Subject)
	assert.Equal(t, ip, id.RemoteIP)
	assert.Equal(t, "req-1", id.RequestID)
	assert.Equal(t, "192.168.1.100", id.ClientIP())
}

func TestIdentity_Valid(t *testing.T) {
	var nilID *Identity
	assert.False(t, nilID.Valid())
	assert.False(t, (&Identity{}).Valid())
	assert.True(t, New(1).Valid())
	assert.Equal(t, "-", nilID.ClientIP())
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	ctx = Set(ctx, New(3))

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, int64(3), id.UserID)
}
