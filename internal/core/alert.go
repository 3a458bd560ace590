package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AlertKind identifies the detector that produced an alert.
type AlertKind int

const (
	AlertBruteForce AlertKind = iota
	AlertCredentialStuffing
	AlertPhishing
)

func (k AlertKind) String() string {
	switch k {
	case AlertBruteForce:
		return "BRUTE_FORCE"
	case AlertCredentialStuffing:
		return "CREDENTIAL_STUFFING"
	case AlertPhishing:
		return "PHISHING"
	default:
		return "UNKNOWN"
	}
}

func (k AlertKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *AlertKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	kind, ok := ParseAlertKind(str)
	if !ok {
		return fmt.Errorf("unknown alert kind %q", str)
	}
	*k = kind
	return nil
}

// ParseAlertKind converts a string to an AlertKind.
func ParseAlertKind(s string) (AlertKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BRUTE_FORCE", "BRUTEFORCE":
		return AlertBruteForce, true
	case "CREDENTIAL_STUFFING", "STUFFING":
		return AlertCredentialStuffing, true
	case "PHISHING":
		return AlertPhishing, true
	default:
		return AlertBruteForce, false
	}
}

// Alert is a finding emitted by a detector. Alerts are immutable after
// creation and reach every registered pipeline handler exactly once per
// triggering observation.
type Alert struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      AlertKind `json:"kind"`
	SourceID  string    `json:"source_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	EventIDs  []string  `json:"event_ids,omitempty"`
}

// NewAlert creates an alert with a generated ID and current timestamp.
func NewAlert(kind AlertKind, sourceID string, count int, severity Severity, message string) *Alert {
	return &Alert{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		SourceID:  sourceID,
		Count:     count,
		Severity:  severity,
		Message:   message,
	}
}

// Marshal serializes the alert to JSON.
func (a *Alert) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalAlert deserializes an Alert from JSON.
func UnmarshalAlert(data []byte) (*Alert, error) {
	var alert Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// AlertHandler is a function invoked for every alert that passes through the
// pipeline.
type AlertHandler func(alert *Alert)

// AlertPipeline fans alerts out to registered handlers and keeps a bounded
// in-memory store of recent alerts for the CLI.
type AlertPipeline struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	handlers []AlertHandler
	store    []*Alert
	maxStore int
	total    int64
	dedup    *AlertDedup
	dropped  int64
}

// NewAlertPipeline creates a pipeline that retains up to maxStore alerts.
func NewAlertPipeline(logger zerolog.Logger, maxStore int) *AlertPipeline {
	if maxStore <= 0 {
		maxStore = 1000
	}
	return &AlertPipeline{
		logger:   logger.With().Str("component", "alert_pipeline").Logger(),
		handlers: make([]AlertHandler, 0),
		store:    make([]*Alert, 0, 128),
		maxStore: maxStore,
	}
}

// AddHandler registers a handler. Handlers are called synchronously in
// registration order from the goroutine that calls Process.
func (p *AlertPipeline) AddHandler(h AlertHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

// SetDedup installs a suppression cache. Duplicate alerts are dropped before
// they reach the store or any handler.
func (p *AlertPipeline) SetDedup(d *AlertDedup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dedup = d
}

// Process stores the alert and dispatches it to every handler.
func (p *AlertPipeline) Process(alert *Alert) {
	if alert == nil {
		return
	}

	p.mu.Lock()
	if p.dedup != nil && p.dedup.IsDuplicate(alert) {
		p.dropped++
		p.mu.Unlock()
		p.logger.Debug().
			Str("kind", alert.Kind.String()).
			Str("source", alert.SourceID).
			Msg("duplicate alert suppressed")
		return
	}
	p.store = append(p.store, alert)
	if len(p.store) > p.maxStore {
		p.store = p.store[len(p.store)-p.maxStore:]
	}
	p.total++
	handlers := make([]AlertHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	p.logger.Debug().
		Str("alert_id", alert.ID).
		Str("kind", alert.Kind.String()).
		Str("source", alert.SourceID).
		Msg("processing alert")

	for _, h := range handlers {
		h(alert)
	}
}

// Recent returns up to n of the most recent alerts, newest last.
func (p *AlertPipeline) Recent(n int) []*Alert {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n <= 0 || n > len(p.store) {
		n = len(p.store)
	}
	out := make([]*Alert, n)
	copy(out, p.store[len(p.store)-n:])
	return out
}

// Total returns the number of alerts processed since startup.
func (p *AlertPipeline) Total() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total
}

// Dropped returns the number of alerts suppressed by deduplication.
func (p *AlertPipeline) Dropped() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dropped
}
