package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/middleware"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

type Server struct {
	Router        *mux.Router
	Runner        *scope.Runner
	HealthStore   store.HealthStore
	Authenticator authenticator.Authenticator
	Log           *zap.SugaredLogger
	Audit         *audit.Logger
	Version       string

	srv *http.Server
}

// Options holds listener settings
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

func NewServer(
	runner *scope.Runner,
	health store.HealthStore,
	auth authenticator.Authenticator,
	log *zap.SugaredLogger,
	auditLog *audit.Logger,
	opts Options,
) *Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if auditLog == nil {
		auditLog = audit.Discard()
	}

	router := mux.NewRouter().UseEncodedPath()
	s := &Server{
		Router:        router,
		Runner:        runner,
		HealthStore:   health,
		Authenticator: auth,
		Log:           log,
		Audit:         auditLog,
		Version:       opts.Version,
	}
	s.srv = &http.Server{
		Handler:      s.Handler(),
		Addr:         opts.Addr,
		WriteTimeout: opts.WriteTimeout,
		ReadTimeout:  opts.ReadTimeout,
	}
	return s
}

// Handler returns the router wrapped with recovery, proxy header and
// request logging middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = middleware.RequestLogger(s.Log)(h)
	h = handlers.ProxyHeaders(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.Log}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

// Authenticated wraps h with bearer token authentication
func (s *Server) Authenticated() mux.MiddlewareFunc {
	return middleware.NewBearerAuth(s.Authenticator, s.Audit, s.Log).Middleware
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.Log.Infow("listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type recoveryLogger struct {
	log *zap.SugaredLogger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.log.Errorln(args...)
}
