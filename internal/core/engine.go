package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Engine wires the event bus, detection modules, and alert pipeline together
// for live monitoring.
type Engine struct {
	Config   *Config
	Bus      *EventBus
	Registry *ModuleRegistry
	Pipeline *AlertPipeline
	Recent   *EventRingBuffer
	Webhooks *WebhookSender
	Logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewLogger builds the process logger from config.
func NewLogger(cfg *Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}

	switch cfg.LogLevel() {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "warn":
		logger = logger.Level(zerolog.WarnLevel)
	case "error":
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}

// NewEngine creates a new engine and its alert handlers.
func NewEngine(cfg *Config) (*Engine, error) {
	logger := NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		Config:   cfg,
		Registry: NewModuleRegistry(logger),
		Pipeline: NewAlertPipeline(logger, cfg.Alerts.MaxStore),
		Recent:   NewEventRingBuffer(cfg.Alerts.RecentEvents),
		Webhooks: NewWebhookSender(logger),
		Logger:   logger.With().Str("component", "engine").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.Alerts.Dedupe {
		engine.Pipeline.SetDedup(NewAlertDedup(cfg.DedupeTTL(), 0))
	}

	if cfg.Alerts.EnableConsole {
		engine.Pipeline.AddHandler(func(alert *Alert) {
			engine.Logger.Warn().
				Str("alert_id", alert.ID).
				Str("kind", alert.Kind.String()).
				Str("severity", alert.Severity.String()).
				Str("source", alert.SourceID).
				Int("count", alert.Count).
				Str("message", alert.Message).
				Msg("SECURITY ALERT")
		})
	}

	for _, url := range cfg.Alerts.WebhookURLs {
		webhookURL := url
		engine.Pipeline.AddHandler(func(alert *Alert) {
			engine.Webhooks.Send(webhookURL, alert)
		})
	}

	return engine, nil
}

// Start initializes the event bus, starts all modules, and begins routing
// events. Events are consumed from a single durable subscription, so all
// modules observe them in arrival order.
func (e *Engine) Start() error {
	e.Logger.Info().Msg("starting socsentry engine")

	bus, err := NewEventBus(&e.Config.Bus, e.Logger)
	if err != nil {
		return fmt.Errorf("starting event bus: %w", err)
	}
	e.Bus = bus

	e.Pipeline.AddHandler(func(alert *Alert) {
		if err := e.Bus.PublishAlert(alert); err != nil {
			e.Logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert to bus")
		}
	})

	if err := e.Registry.StartAll(e.ctx, e.Bus, e.Pipeline, e.Config); err != nil {
		return fmt.Errorf("starting modules: %w", err)
	}

	if err := e.Bus.SubscribeToAllEvents(func(event *AuthEvent) {
		e.Recent.Add(event)
		e.Registry.RouteEvent(event, e.Logger)
	}); err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}

	e.Logger.Info().
		Int("modules", e.Registry.Count()).
		Msg("socsentry engine started")

	return nil
}

// Run starts the engine and blocks until a shutdown signal is received.
func (e *Engine) Run() error {
	if err := e.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		e.Logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-e.ctx.Done():
		e.Logger.Info().Msg("context cancelled")
	}

	return e.Shutdown()
}

// Shutdown gracefully stops the engine. In-flight webhook deliveries are
// flushed before the bus closes so no alert is silently dropped.
func (e *Engine) Shutdown() error {
	e.Logger.Info().Msg("shutting down socsentry engine")
	e.cancel()

	e.Registry.StopAll()
	e.Webhooks.Flush()

	if e.Bus != nil {
		if err := e.Bus.Close(); err != nil {
			e.Logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	e.Logger.Info().Msg("socsentry engine stopped")
	return nil
}

// Context returns the engine's context.
func (e *Engine) Context() context.Context {
	return e.ctx
}
