// Package app wires the fleet store, its telemetry and the REST server into
// one runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kilianp07/robofleet/api/robots"
	"github.com/kilianp07/robofleet/config"
	"github.com/kilianp07/robofleet/core/fleet"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/core/model"
	coremon "github.com/kilianp07/robofleet/core/monitoring"
	"github.com/kilianp07/robofleet/infra/journal"
	"github.com/kilianp07/robofleet/infra/logger"
	_ "github.com/kilianp07/robofleet/infra/metrics" // registers the metrics sinks
	"github.com/kilianp07/robofleet/infra/monitoring"
	"github.com/kilianp07/robofleet/infra/mqtt"
	"github.com/kilianp07/robofleet/infra/telemetry"
)

// Service owns a memory-backed fleet and everything fed by its mutations.
type Service struct {
	Store *fleet.MemoryStore

	cfg       *config.Config
	log       logger.Logger
	pipeline  *telemetry.Pipeline
	metrics   coremetrics.MetricsSink
	journal   journal.Store
	publisher mqtt.Publisher
	server    *echo.Echo
}

// New builds the service from cfg. The fleet is loaded by Seed or Run.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	ids, err := fleet.NewIDGenerator(cfg.Fleet.IDStrategy, cfg.Fleet.Seed)
	if err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	js, err := journal.New(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	var pub mqtt.Publisher
	if cfg.MQTT.Enabled() {
		c, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			closeJournal(js, log)
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		pub = c
	}

	pipeline := telemetry.NewPipeline(logger.New("telemetry"), cfg.Telemetry.Buffer)
	store := fleet.NewMemoryStore(
		fleet.WithIDGenerator(ids),
		fleet.WithIDAttempts(cfg.Fleet.IDAttempts),
		fleet.WithRecorder(pipeline),
		fleet.WithLogger(logger.New("fleet")),
	)

	opts := []robots.Option{
		robots.WithGenerator(fleet.NewGenerator(cfg.Fleet.Seed)),
		robots.WithLogger(logger.New("api")),
	}
	if js != nil {
		opts = append(opts, robots.WithJournal(js))
	}
	server := robots.NewServer(robots.NewHandler(store, opts...), robots.ServerOptions{
		Metrics:        cfg.Metrics.Has("prometheus"),
		RequestTimeout: cfg.Server.RequestTimeout(),
		AllowOrigins:   cfg.Server.AllowOrigins,
		Logger:         logger.New("http"),
	})

	return &Service{
		Store:     store,
		cfg:       cfg,
		log:       log,
		pipeline:  pipeline,
		metrics:   sink,
		journal:   js,
		publisher: pub,
		server:    server,
	}, nil
}

// Seed loads the configured initial fleet into the store.
func (s *Service) Seed(ctx context.Context) error {
	var (
		seed []model.Robot
		err  error
	)
	switch {
	case s.cfg.Fleet.SeedFile != "":
		seed, err = fleet.LoadSeed(s.cfg.Fleet.SeedFile)
		if err != nil {
			return fmt.Errorf("seed file: %w", err)
		}
	case s.cfg.Fleet.Sample():
		seed = fleet.SampleFleet()
	default:
		return nil
	}
	if err := s.Store.Replace(ctx, seed); err != nil {
		return fmt.Errorf("seed fleet: %w", err)
	}
	s.log.Infow("fleet seeded", map[string]any{"robots": len(seed)})
	return nil
}

// StartTelemetry launches the consumers feeding metrics, journal and MQTT.
func (s *Service) StartTelemetry(ctx context.Context) {
	s.pipeline.Start(ctx, telemetry.Sinks{Metrics: s.metrics, Journal: s.journal, Publisher: s.publisher})
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Service) Handler() http.Handler { return s.server }

// Run starts the telemetry consumers, seeds the fleet and serves HTTP until
// ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.StartTelemetry(ctx)
	if err := s.Seed(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	coremon.Go(func() {
		s.log.Infow("http server listening", map[string]any{"address": s.cfg.Server.Address})
		if err := s.server.Start(s.cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	})

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close drains telemetry and releases the sinks.
func (s *Service) Close() error {
	var errs []error
	if err := s.pipeline.Close(s.cfg.Telemetry.CloseTimeout()); err != nil {
		errs = append(errs, err)
	}
	if d := s.pipeline.Dropped(); d > 0 {
		s.log.Warnw("telemetry events dropped", map[string]any{"count": d})
	}
	if c, ok := s.metrics.(coremetrics.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	coremon.Flush(s.cfg.Telemetry.CloseTimeout())
	return errors.Join(errs...)
}

func closeJournal(js journal.Store, log logger.Logger) {
	if js == nil {
		return
	}
	if err := js.Close(); err != nil {
		log.Errorf("journal close: %v", err)
	}
}
