// Package server wires configuration, the task store and the HTTP router
// into a runnable API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"todo-tasks/app/config"
	"todo-tasks/app/controllers"
	"todo-tasks/app/routes"
	"todo-tasks/app/services"
	"todo-tasks/app/store"

	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg   *config.Config
	log   *logrus.Logger
	store store.TaskStore
	http  *http.Server
}

// New builds a server on top of an already opened store.
func New(cfg *config.Config, log *logrus.Logger, st store.TaskStore) *Server {
	svc := services.NewTaskService(st, log)
	router := routes.NewRouter(controllers.NewTaskController(svc, log), log, cfg.App.MinVersionCode)

	return &Server{
		cfg:   cfg,
		log:   log,
		store: st,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully and closes the store.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("server is running")
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.closeStore()
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	s.closeStore()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info("server exited")
	return nil
}

func (s *Server) closeStore() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		s.log.WithError(err).Warn("closing task store")
	}
}
