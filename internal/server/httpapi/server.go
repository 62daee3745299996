// Package httpapi exposes the credential service and the asset gateway over
// HTTP. It is glue only: all rules live in the services it wraps.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/jobhub/internal/logging"
	"github.com/dmitrijs2005/jobhub/internal/server/auth"
	"github.com/dmitrijs2005/jobhub/internal/server/credentials"
	"github.com/dmitrijs2005/jobhub/internal/server/storage"
)

// Credentials is the part of credentials.Service used by the handlers.
type Credentials interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*credentials.AuthResult, error)
	Login(ctx context.Context, email, password string) (*credentials.AuthResult, error)
	VerifyToken(token string) *auth.Claims
}

// Assets is the part of storage.Gateway used by the handlers.
type Assets interface {
	UploadFiles(ctx context.Context, reqs []storage.UploadRequest) []storage.UploadResult
	Delete(ctx context.Context, key string) bool
}

const (
	maxUploadMemory = 32 << 20
	// maxUploadBody bounds a whole multipart upload request.
	maxUploadBody   = 64 << 20
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	address      string
	maxBodyBytes int64
	credentials  Credentials
	assets       Assets
	localRoot    string
	logger       logging.Logger
}

// NewServer wires the handlers. A non-empty localRoot is served read-only
// under /uploads/.
func NewServer(address string, l logging.Logger, c Credentials, a Assets, localRoot string) *Server {
	if l == nil {
		l = logging.Nop{}
	}
	return &Server{
		address:      address,
		maxBodyBytes: maxUploadBody,
		credentials:  c,
		assets:       a,
		localRoot:    localRoot,
		logger:       l.With("module", "http_server"),
	}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	secured := api.NewRoute().Subrouter()
	secured.Use(s.accessTokenMiddleware)
	secured.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	secured.HandleFunc("/assets/{category}", s.handleUpload).Methods(http.MethodPost)
	secured.HandleFunc("/assets", s.handleDelete).Methods(http.MethodDelete)

	if s.localRoot != "" {
		r.PathPrefix(storage.LocalPathPrefix).Handler(
			http.StripPrefix(storage.LocalPathPrefix, http.FileServer(http.Dir(s.localRoot))),
		).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
