package simulator

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Simulator is a running fake agent: switch bank, drifting sensors and the
// HTTP routes that expose them.
type Simulator struct {
	cfg     config.SimulatorConfig
	log     logger.Logger
	bank    *SwitchBank
	sensors *Sensors
	router  *gin.Engine
}

// Option configures a Simulator.
type Option func(*options)

type options struct {
	log  logger.Logger
	seed int64
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSeed makes sensor drift reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// New builds a simulator from config. Nothing listens until Run.
func New(cfg config.SimulatorConfig, opts ...Option) (*Simulator, error) {
	if err := config.ValidateSimulator(cfg); err != nil {
		return nil, err
	}

	o := options{log: logger.Noop(), seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	sensors, err := NewSensors(registry, cfg.Sensors, cfg.Switches, o.seed)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:     cfg,
		log:     o.log,
		bank:    NewSwitchBank(cfg.Switches),
		sensors: sensors,
	}

	gin.SetMode(gin.ReleaseMode)
	h := &Handler{
		bank:     s.bank,
		sensors:  sensors,
		registry: registry,
		origins:  cfg.CORSOrigins,
		log:      o.log,
	}
	s.router = h.InitRoutes()
	return s, nil
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Simulator) Handler() http.Handler {
	return s.router
}

// Bank exposes the switch bank.
func (s *Simulator) Bank() *SwitchBank {
	return s.bank
}

// Sensors exposes the simulated sensors.
func (s *Simulator) Sensors() *Sensors {
	return s.sensors
}

// Drift steps sensor readings on every tick until ctx is cancelled.
func (s *Simulator) Drift(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sensors.Step()
		}
	}
}

// Run listens on cfg.Listen and serves until ctx is cancelled. ready, if
// non-nil, receives the bound address once the listener is up.
func (s *Simulator) Run(ctx context.Context, ready func(net.Addr)) error {
	srv := &Server{}
	addr, err := srv.Listen(s.cfg.Listen, s.router)
	if err != nil {
		return err
	}
	s.log.Info("simulated agent listening on %s", addr)
	if ready != nil {
		ready(addr)
	}

	driftCtx, stopDrift := context.WithCancel(ctx)
	defer stopDrift()
	go s.Drift(driftCtx, s.cfg.Tick)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down simulated agent")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
