// Package server exposes the case records, document files and meeting
// scheduling over an authenticated JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"lexdesk/internal/blob"
	"lexdesk/internal/calendar"
	"lexdesk/internal/logging"
	"lexdesk/internal/store"
)

type Options struct {
	Addr      string
	Token     string
	Version   string
	Repo      store.Repository
	Blobs     blob.Store
	Scheduler calendar.Scheduler
	Metrics   *Metrics
	Logger    logging.Logger
}

type Server struct {
	addr     string
	token    string
	api      *API
	services *Services
	repo     store.Repository
	blobs    blob.Store
	logger   logging.Logger
	server   *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if opts.Token == "" {
		return nil, errors.New("token is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	services := NewServices(ServiceDeps{
		Repo:      opts.Repo,
		Blobs:     opts.Blobs,
		Scheduler: opts.Scheduler,
		Logger:    logger,
		Metrics:   opts.Metrics,
	})
	api := &API{
		Version:  opts.Version,
		Services: services,
		Metrics:  opts.Metrics,
		Logger:   logger,
	}
	return &Server{
		addr:     opts.Addr,
		token:    opts.Token,
		api:      api,
		services: services,
		repo:     opts.Repo,
		blobs:    opts.Blobs,
		logger:   logger,
	}, nil
}

func (s *Server) Services() *Services {
	return s.services
}

// Handler returns the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.api.RegisterRoutes(mux)
	var handler http.Handler = TokenAuthMiddleware(s.token, mux)
	handler = s.api.Metrics.Middleware(handler)
	return LoggingMiddleware(s.logger, handler)
}

// Run serves until ctx ends or a client requests shutdown, then closes the
// repository and blob store.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.api.Shutdown = s.server.Shutdown

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening",
			logging.F("addr", "http://"+s.addr),
			logging.F("storage", s.repo.Backend()),
		)
		errCh <- s.server.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		runErr = s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}
	return multierr.Combine(runErr, s.Close())
}

func (s *Server) Close() error {
	var err error
	if s.blobs != nil {
		err = multierr.Append(err, s.blobs.Close())
	}
	if s.repo != nil {
		err = multierr.Append(err, s.repo.Close())
	}
	if err != nil {
		s.logger.Warn("server_close_failed", logging.Err(err))
	}
	return err
}
