package cli

import (
	"io"
	"os"
	"strings"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/internal/metrics"
)

// session is the resolved config plus the pieces every command builds from it.
type session struct {
	cfg *config.Config
	log logger.Logger
}

// loadSession resolves config, applies --api-host and validates the result.
// Log lines go to logOut; pass io.Discard when the terminal belongs to a TUI.
func loadSession(logOut io.Writer) (*session, error) {
	cfg, path, err := config.Resolve(Config())
	if err != nil {
		return nil, err
	}

	if apiHostFlag != "" {
		host, err := config.NormalizeAPIHost(apiHostFlag)
		if err != nil {
			return nil, err
		}
		cfg.APIHost = host
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.RequireAPIHost(cfg); err != nil {
		return nil, err
	}

	if logOut == nil {
		logOut = os.Stderr
	}
	// Failures already reach the user through reportError, so one-shot
	// commands only log when debugging.
	log := logger.Noop()
	if strings.EqualFold(cfg.LogLevel, logger.DebugLevel) || os.Getenv(logger.DebugEnv) != "" {
		log = logger.New("[gha]", logger.DebugLevel, logOut)
	}
	if path != "" {
		log.Debug("config loaded from %s", path)
	}
	log.Debug("api_host %s", cfg.APIHost)

	return &session{cfg: cfg, log: log}, nil
}

// newClient builds an agent client from the session config. A nil notifier
// leaves the client's default in place.
func (s *session) newClient(n client.Notifier, extra ...client.Option) *client.Client {
	opts := []client.Option{
		client.WithTimeout(s.cfg.Timeout),
		client.WithLogger(s.log),
	}
	if n != nil {
		opts = append(opts, client.WithNotifier(n))
	}
	if s.cfg.Client.Retries > 0 {
		opts = append(opts, client.WithRetry(s.cfg.Client.Retries, s.cfg.Client.RetryMaxElapsed))
	}
	if s.cfg.Client.BreakerFailures > 0 {
		opts = append(opts, client.WithBreaker(s.cfg.Client.BreakerFailures, s.cfg.Client.BreakerOpen))
	}
	opts = append(opts, extra...)
	return client.New(s.cfg.APIHost, opts...)
}

// parser builds a metrics parser from the metrics section.
func (s *session) parser() *metrics.Parser {
	m := s.cfg.Metrics
	return metrics.NewParser(
		metrics.WithSuffixes(m.Suffixes...),
		metrics.WithPolicy(metrics.ParsePolicy(m.OnParseError)),
		metrics.WithDefault(m.DefaultValue),
	)
}
