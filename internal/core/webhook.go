package core

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// WebhookSender delivers alerts to configured webhook URLs. Each URL gets its
// own circuit breaker so a flapping endpoint (Slack returning 503s) stops
// receiving traffic for a cooldown instead of stalling every alert.
type WebhookSender struct {
	logger   zerolog.Logger
	client   *http.Client
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	wg       sync.WaitGroup
}

// NewWebhookSender creates a sender with a bounded request timeout.
func NewWebhookSender(logger zerolog.Logger) *WebhookSender {
	return &WebhookSender{
		logger:   logger.With().Str("component", "webhook_sender").Logger(),
		client:   &http.Client{Timeout: 10 * time.Second},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (w *WebhookSender) breaker(url string) *gobreaker.CircuitBreaker {
	w.mu.Lock()
	defer w.mu.Unlock()
	cb, ok := w.breakers[url]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        url,
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				w.logger.Warn().
					Str("url", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("webhook circuit breaker state change")
			},
		})
		w.breakers[url] = cb
	}
	return cb
}

// Send delivers the alert to the URL asynchronously. Failed deliveries are
// logged; the circuit breaker pauses a URL after repeated failures.
func (w *WebhookSender) Send(url string, alert *Alert) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.deliver(url, alert); err != nil {
			w.logger.Error().Err(err).
				Str("url", url).
				Str("alert_id", alert.ID).
				Msg("webhook delivery failed")
		}
	}()
}

func (w *WebhookSender) deliver(url string, alert *Alert) error {
	data, err := alert.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	_, err = w.breaker(url).Execute(func() (interface{}, error) {
		resp, err := w.client.Post(url, "application/json", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// Flush blocks until all in-flight deliveries have completed. Called during
// shutdown so queued alerts are not lost.
func (w *WebhookSender) Flush() {
	w.wg.Wait()
}
