// Package authwatch detects brute force and credential stuffing patterns in
// an ordered stream of authentication events.
package authwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/socsentry-project/socsentry/internal/core"
)

const ModuleName = "auth_watch"

// trackedSources bounds per-source state by distinct source cardinality, not
// by event count. Windows are pruned per observation, so memory stays flat
// under sustained load.
const trackedSources = 50000

// ---------------------------------------------------------------------------
// BruteForceTracker — sliding-window failed login detection
// ---------------------------------------------------------------------------

// BruteForceTracker keeps a per-source sliding window of failure timestamps
// and alerts when the windowed count reaches the threshold.
//
// Pruning is relative to each event's own timestamp, never the wall clock,
// so batch replay of a recorded log is deterministic.
//
// The tracker is a continuous alarm: an alert does not reset the window, and
// every further qualifying failure re-fires. Deployments wanting one alert
// per source per window enable alert deduplication on the pipeline instead.
type BruteForceTracker struct {
	mu        sync.Mutex
	windows   *lru.Cache[string, []time.Time]
	threshold int
	window    time.Duration
}

// NewBruteForceTracker creates a tracker. threshold <= 0 defaults to 3;
// window <= 0 defaults to 60s.
func NewBruteForceTracker(threshold int, window time.Duration) *BruteForceTracker {
	if threshold <= 0 {
		threshold = 3
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	cache, _ := lru.New[string, []time.Time](trackedSources)
	return &BruteForceTracker{
		windows:   cache,
		threshold: threshold,
		window:    window,
	}
}

// Observe feeds one event to the tracker. Returns a BRUTE_FORCE alert when
// the pruned failure count for the event's source reaches the threshold,
// nil otherwise. Events that are not actionable failures never mutate state.
func (t *BruteForceTracker) Observe(event *core.AuthEvent) *core.Alert {
	if event == nil || !event.Actionable() || !event.FailedLogin {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	window, _ := t.windows.Get(event.SourceID)
	window = append(window, event.Timestamp)

	// Prune relative to this event's timestamp. Timestamps arrive in order,
	// so the survivors are a suffix.
	cutoff := event.Timestamp.Add(-t.window)
	keep := 0
	for keep < len(window) && window[keep].Before(cutoff) {
		keep++
	}
	window = window[keep:]
	t.windows.Add(event.SourceID, window)

	if len(window) < t.threshold {
		return nil
	}

	count := len(window)
	alert := core.NewAlert(core.AlertBruteForce, event.SourceID, count, core.SeverityHigh,
		fmt.Sprintf("Brute-force attack suspected from %s (%d failed attempts within %s)",
			event.SourceID, count, t.window))
	alert.EventIDs = []string{event.ID}
	return alert
}

// Scan runs the tracker over a finite ordered batch and returns every alert
// emitted, in emission order.
func (t *BruteForceTracker) Scan(events []*core.AuthEvent) []*core.Alert {
	var alerts []*core.Alert
	for _, ev := range events {
		if alert := t.Observe(ev); alert != nil {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// WindowCount returns the current pruned failure count for a source.
func (t *BruteForceTracker) WindowCount(sourceID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	window, _ := t.windows.Get(sourceID)
	return len(window)
}

// Reset clears all tracked windows.
func (t *BruteForceTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows.Purge()
}

// ---------------------------------------------------------------------------
// CorrelationTracker — success-after-failures credential stuffing detection
// ---------------------------------------------------------------------------

// CorrelationTracker counts consecutive failures per source and fires a
// CREDENTIAL_STUFFING alert when a success lands after at least threshold
// failures. This is the highest-severity finding: it indicates a likely
// successful intrusion, not merely suspicious volume.
//
// A success always clears the failure counter for its source, whether or not
// the alert fired.
type CorrelationTracker struct {
	mu        sync.Mutex
	failures  *lru.Cache[string, int]
	threshold int
}

// NewCorrelationTracker creates a tracker. threshold <= 0 defaults to 3.
func NewCorrelationTracker(threshold int) *CorrelationTracker {
	if threshold <= 0 {
		threshold = 3
	}
	cache, _ := lru.New[string, int](trackedSources)
	return &CorrelationTracker{failures: cache, threshold: threshold}
}

// Observe feeds one event to the tracker. Ordering matters: a success before
// sufficient failures never correlates.
func (t *CorrelationTracker) Observe(event *core.AuthEvent) *core.Alert {
	if event == nil || !event.Actionable() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if event.FailedLogin {
		count, _ := t.failures.Get(event.SourceID)
		t.failures.Add(event.SourceID, count+1)
		return nil
	}

	// Successful login: correlate against failures counted before this event.
	count, _ := t.failures.Get(event.SourceID)
	t.failures.Remove(event.SourceID)

	if count < t.threshold {
		return nil
	}

	alert := core.NewAlert(core.AlertCredentialStuffing, event.SourceID, count, core.SeverityCritical,
		fmt.Sprintf("Successful login from %s after %d failed attempts — possible credential compromise",
			event.SourceID, count))
	alert.EventIDs = []string{event.ID}
	return alert
}

// Scan runs the tracker over a finite ordered batch.
func (t *CorrelationTracker) Scan(events []*core.AuthEvent) []*core.Alert {
	var alerts []*core.Alert
	for _, ev := range events {
		if alert := t.Observe(ev); alert != nil {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// FailureCount returns the current failure counter for a source.
func (t *CorrelationTracker) FailureCount(sourceID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count, _ := t.failures.Get(sourceID)
	return count
}

// Reset clears all failure counters.
func (t *CorrelationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures.Purge()
}

// ---------------------------------------------------------------------------
// Module wrapper
// ---------------------------------------------------------------------------

// Watch is the auth watch module. Both trackers observe every event from the
// same handler, so they see the stream in identical order.
type Watch struct {
	logger      zerolog.Logger
	pipeline    *core.AlertPipeline
	bruteForce  *BruteForceTracker
	correlation *CorrelationTracker
	ctx         context.Context
	cancel      context.CancelFunc
}

var _ core.Module = (*Watch)(nil)

func New() *Watch { return &Watch{} }

func (w *Watch) Name() string { return ModuleName }
func (w *Watch) Description() string {
	return "Brute force and credential stuffing detection over authentication log events"
}

func (w *Watch) Start(ctx context.Context, bus *core.EventBus, pipeline *core.AlertPipeline, cfg *core.Config) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.pipeline = pipeline
	w.bruteForce = NewBruteForceTracker(cfg.AuthWatch.BruteForceThreshold, cfg.AuthWatch.Window())
	w.correlation = NewCorrelationTracker(cfg.AuthWatch.CorrelationThreshold)
	w.logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("module", ModuleName).Logger()

	w.logger.Info().
		Int("bruteforce_threshold", cfg.AuthWatch.BruteForceThreshold).
		Dur("window", cfg.AuthWatch.Window()).
		Int("correlation_threshold", cfg.AuthWatch.CorrelationThreshold).
		Msg("auth watch started")
	return nil
}

func (w *Watch) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

// BruteForce exposes the brute force tracker (batch scans, status view).
func (w *Watch) BruteForce() *BruteForceTracker { return w.bruteForce }

// Correlation exposes the correlation tracker.
func (w *Watch) Correlation() *CorrelationTracker { return w.correlation }

// HandleEvent feeds the event to both trackers in a fixed order and raises
// any resulting alerts on the pipeline.
func (w *Watch) HandleEvent(event *core.AuthEvent) error {
	if event == nil || !event.Actionable() {
		return nil
	}

	if alert := w.bruteForce.Observe(event); alert != nil {
		w.raise(alert)
	}
	if alert := w.correlation.Observe(event); alert != nil {
		w.raise(alert)
	}
	return nil
}

func (w *Watch) raise(alert *core.Alert) {
	if w.pipeline != nil {
		w.pipeline.Process(alert)
	}
}
