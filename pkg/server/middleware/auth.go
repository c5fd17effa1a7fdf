package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
)

// BearerAuth is middleware that turns an Authorization: Bearer header into
// an identity.Identity on the request context
type BearerAuth struct {
	auth  authenticator.Authenticator
	audit *audit.Logger
	log   *zap.SugaredLogger
}

// NewBearerAuth creates a new bearer token middleware
func NewBearerAuth(auth authenticator.Authenticator, auditLog *audit.Logger, log *zap.SugaredLogger) *BearerAuth {
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &BearerAuth{auth: auth, audit: auditLog, log: log}
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (b *BearerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			b.reject(w, r, clientIP, "", "authorization missing or malformed")
			return
		}

		id, err := b.auth.Authenticate(r.Context(), token)
		if err != nil {
			b.reject(w, r, clientIP, "", err.Error())
			return
		}

		id.WithRemoteIP(net.ParseIP(clientIP)).WithRequestID(RequestID(r.Context()))
		b.audit.Log(r.Context(), audit.AuthenticateEvent{
			Subject:           id.Subject,
			ClientIP:          clientIP,
			AuthenticatorName: b.auth.Name(),
			Success:           true,
		})

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func (b *BearerAuth) reject(w http.ResponseWriter, r *http.Request, clientIP, subject, reason string) {
	b.log.Infow("authentication failed", "reason", reason, "client_ip", clientIP, "request_id", RequestID(r.Context()))
	b.audit.Log(r.Context(), audit.AuthenticateEvent{
		Subject:           subject,
		ClientIP:          clientIP,
		AuthenticatorName: b.auth.Name(),
		Success:           false,
		ErrorMessage:      reason,
	})

	w.Header().Set("WWW-Authenticate", `Bearer realm="rlsnotes"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClientIP returns the request's remote host. handlers.ProxyHeaders has
// already replaced RemoteAddr when forwarding headers are present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
