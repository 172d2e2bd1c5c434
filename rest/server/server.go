package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/mensylisir/hostboard/pkg/config"
	"github.com/mensylisir/hostboard/pkg/connector"
	"github.com/mensylisir/hostboard/pkg/facts"
	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/pkg/session"
	"github.com/mensylisir/hostboard/rest/app"
	"github.com/mensylisir/hostboard/rest/server/handler"
)

// APIServer hosts the hostboard HTTP API.
type APIServer struct {
	log *logger.Logger
	cfg *config.Config
}

// NewAPIServer creates an APIServer from the loaded configuration.
func NewAPIServer(cfg *config.Config, log *logger.Logger) *APIServer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &APIServer{log: log, cfg: cfg}
}

// Start wires services, mounts the router and serves until SIGINT or
// SIGTERM, then drains in-flight requests within the shutdown timeout.
func (s *APIServer) Start() error {
	s.log.Infof("Initializing API server...")

	conn := connector.NewLocalConnector()
	conn.DefaultTimeout = s.cfg.Engine.CommandTimeout
	engine := facts.NewEngine(conn, s.log,
		facts.WithRateSampling(s.cfg.Engine.RateSampleInterval))
	store := session.NewStore(s.cfg.Session.FilePath, s.cfg.Session.TTL, s.log)

	snapshotSvc := app.NewSnapshotService(engine, s.log)
	actionSvc := app.NewActionService(conn, s.log, s.cfg.Engine.AllowedActions)

	factsH := handler.NewFactsHandler(snapshotSvc, s.log)
	actionH := handler.NewActionHandler(actionSvc, s.log)
	authH := handler.NewAuthHandler(store, s.log)

	router := SetupRouter(s.log, factsH, actionH, authH)

	httpServer := &http.Server{
		Addr:         s.cfg.Server.ListenAddress,
		Handler:      router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("API server listening on %s", s.cfg.Server.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return errors.Wrap(err, "API server failed")
	case sig := <-quit:
		s.log.Infof("API server shutting down (%s)...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "forced shutdown")
	}
	s.log.Successf("API server stopped cleanly.")
	return nil
}
