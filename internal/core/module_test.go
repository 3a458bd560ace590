package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubModule struct {
	name    string
	started bool
	stopped bool
	events  []*AuthEvent
	handle  func(*AuthEvent) error
}

func (m *stubModule) Name() string        { return m.name }
func (m *stubModule) Description() string { return "stub" }
func (m *stubModule) Start(ctx context.Context, bus *EventBus, pipeline *AlertPipeline, cfg *Config) error {
	m.started = true
	return nil
}
func (m *stubModule) Stop() error {
	m.stopped = true
	return nil
}
func (m *stubModule) HandleEvent(event *AuthEvent) error {
	m.events = append(m.events, event)
	if m.handle != nil {
		return m.handle(event)
	}
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())
	mod := &stubModule{name: "alpha"}

	if err := r.Register(mod); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	got, ok := r.Get("alpha")
	if !ok || got != Module(mod) {
		t.Error("Get() did not return the registered module")
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())
	r.Register(&stubModule{name: "alpha"})
	if err := r.Register(&stubModule{name: "alpha"}); err == nil {
		t.Error("expected error for duplicate module name")
	}
}

func TestRegistry_RouteEvent_RegistrationOrder(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())

	var order []string
	a := &stubModule{name: "a", handle: func(*AuthEvent) error { order = append(order, "a"); return nil }}
	b := &stubModule{name: "b", handle: func(*AuthEvent) error { order = append(order, "b"); return nil }}
	r.Register(a)
	r.Register(b)

	r.RouteEvent(NewAuthEvent("1.2.3.4", true, false, time.Now()), zerolog.Nop())

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("dispatch order = %v, want [a b]", order)
	}
}

func TestRegistry_RouteEvent_PanicRecovered(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())

	panicky := &stubModule{name: "panicky", handle: func(*AuthEvent) error { panic("boom") }}
	after := &stubModule{name: "after"}
	r.Register(panicky)
	r.Register(after)

	r.RouteEvent(NewAuthEvent("1.2.3.4", true, false, time.Now()), zerolog.Nop())

	if len(after.events) != 1 {
		t.Error("panic in one module blocked dispatch to the next")
	}
	metrics := r.GetMetrics()
	errs := metrics["module_errors"].(map[string]int64)
	if errs["panicky"] != 1 {
		t.Errorf("panic not counted: %v", errs)
	}
}

func TestRegistry_RouteEvent_ErrorCounted(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())
	failing := &stubModule{name: "failing", handle: func(*AuthEvent) error { return errors.New("nope") }}
	r.Register(failing)

	r.RouteEvent(NewAuthEvent("1.2.3.4", true, false, time.Now()), zerolog.Nop())
	r.RouteEvent(NewAuthEvent("1.2.3.4", true, false, time.Now()), zerolog.Nop())

	metrics := r.GetMetrics()
	if metrics["events_routed"].(int64) != 2 {
		t.Errorf("events_routed = %v, want 2", metrics["events_routed"])
	}
	errs := metrics["module_errors"].(map[string]int64)
	if errs["failing"] != 2 {
		t.Errorf("module_errors = %v, want failing: 2", errs)
	}
}

func TestRegistry_StartAllStopAll(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())
	a := &stubModule{name: "a"}
	b := &stubModule{name: "b"}
	r.Register(a)
	r.Register(b)

	if err := r.StartAll(context.Background(), nil, nil, DefaultConfig()); err != nil {
		t.Fatalf("StartAll() error: %v", err)
	}
	if !a.started || !b.started {
		t.Error("not all modules started")
	}

	r.StopAll()
	if !a.stopped || !b.stopped {
		t.Error("not all modules stopped")
	}
}

func TestRegistry_All_Order(t *testing.T) {
	r := NewModuleRegistry(zerolog.Nop())
	r.Register(&stubModule{name: "z"})
	r.Register(&stubModule{name: "a"})

	all := r.All()
	if len(all) != 2 || all[0].Name() != "z" || all[1].Name() != "a" {
		t.Errorf("All() order wrong: %v", []string{all[0].Name(), all[1].Name()})
	}
}
