package identity

import (
	"context"
	"net"
	"strconv"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated caller of a request.
// UserID is the value bound into every scoped transaction.
type Identity struct {
	// Token claims
	UserID    int64
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP  net.IP
	RequestID string
}

// New creates an Identity for a numeric user id.
func New(userID int64) *Identity {
	return &Identity{
		UserID:  userID,
		Subject: strconv.FormatInt(userID, 10),
	}
}

// ParseSubject converts a token subject into a user id.
// Only positive integers identify a user.
func ParseSubject(sub string) (int64, bool) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithRequestID sets the request correlation id.
func (i *Identity) WithRequestID(id string) *Identity {
	i.RequestID = id
	return i
}

// Valid reports whether the identity can be bound to a transaction.
func (i *Identity) Valid() bool {
	return i != nil && i.UserID > 0
}

// ClientIP returns the remote address as a string, or "-" when unknown.
func (i *Identity) ClientIP() string {
	if i == nil || i.RemoteIP == nil {
		return "-"
	}
	return i.RemoteIP.String()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
