package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Module is the interface all socsentry detection modules implement.
type Module interface {
	// Name returns the unique name of the module.
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Start initializes and starts the module.
	Start(ctx context.Context, bus *EventBus, pipeline *AlertPipeline, cfg *Config) error
	// Stop gracefully shuts down the module.
	Stop() error
	// HandleEvent processes one auth event. Modules are invoked from the
	// single bus-consumer goroutine, in arrival order.
	HandleEvent(event *AuthEvent) error
}

// ModuleRegistry manages module registration and lifecycle.
type ModuleRegistry struct {
	mu      sync.RWMutex
	modules map[string]Module
	order   []string
	logger  zerolog.Logger

	metrics *RegistryMetrics
}

// RegistryMetrics tracks event routing counters.
type RegistryMetrics struct {
	mu           sync.Mutex       `json:"-"`
	EventsRouted int64            `json:"events_routed"`
	ModuleErrors map[string]int64 `json:"module_errors"`
}

// NewModuleRegistry creates a new ModuleRegistry.
func NewModuleRegistry(logger zerolog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		modules: make(map[string]Module),
		order:   make([]string, 0),
		logger:  logger.With().Str("component", "module_registry").Logger(),
		metrics: &RegistryMetrics{
			ModuleErrors: make(map[string]int64),
		},
	}
}

// Register adds a module to the registry.
func (r *ModuleRegistry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := mod.Name()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}

	r.modules[name] = mod
	r.order = append(r.order, name)

	r.logger.Info().Str("module", name).Msg("module registered")
	return nil
}

// RouteEvent dispatches an event to every module in registration order. Each
// dispatch is wrapped in a recover() so a panicking module cannot crash the
// engine.
func (r *ModuleRegistry) RouteEvent(event *AuthEvent, logger zerolog.Logger) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.metrics.mu.Lock()
	r.metrics.EventsRouted++
	r.metrics.mu.Unlock()

	for _, name := range r.order {
		r.safeHandleEvent(r.modules[name], event, logger)
	}
}

func (r *ModuleRegistry) safeHandleEvent(mod Module, event *AuthEvent, logger zerolog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Str("module", mod.Name()).
				Str("event_id", event.ID).
				Interface("panic", rec).
				Msg("MODULE PANIC — recovered, module did not crash engine")
			r.metrics.mu.Lock()
			r.metrics.ModuleErrors[mod.Name()]++
			r.metrics.mu.Unlock()
		}
	}()

	if err := mod.HandleEvent(event); err != nil {
		logger.Error().Err(err).
			Str("module", mod.Name()).
			Str("event_id", event.ID).
			Msg("module failed to handle event")
		r.metrics.mu.Lock()
		r.metrics.ModuleErrors[mod.Name()]++
		r.metrics.mu.Unlock()
	}
}

// Get returns a module by name.
func (r *ModuleRegistry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.modules[name]
	return mod, ok
}

// All returns all registered modules in registration order.
func (r *ModuleRegistry) All() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.modules[name])
	}
	return result
}

// StartAll starts all registered modules.
func (r *ModuleRegistry) StartAll(ctx context.Context, bus *EventBus, pipeline *AlertPipeline, cfg *Config) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		mod := r.modules[name]
		r.logger.Info().Str("module", name).Msg("starting module")
		if err := mod.Start(ctx, bus, pipeline, cfg); err != nil {
			return fmt.Errorf("failed to start module %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all registered modules in reverse order.
func (r *ModuleRegistry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if err := r.modules[name].Stop(); err != nil {
			r.logger.Error().Err(err).Str("module", name).Msg("error stopping module")
		}
	}
}

// Count returns the number of registered modules.
func (r *ModuleRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// GetMetrics returns a snapshot of routing metrics.
func (r *ModuleRegistry) GetMetrics() map[string]interface{} {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()
	modErr := make(map[string]int64, len(r.metrics.ModuleErrors))
	for k, v := range r.metrics.ModuleErrors {
		modErr[k] = v
	}
	return map[string]interface{}{
		"events_routed": r.metrics.EventsRouted,
		"module_errors": modErr,
	}
}
