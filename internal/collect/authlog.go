package collect

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/socsentry-project/socsentry/internal/core"
)

var (
	// sshd: Failed password for invalid user admin from 1.2.3.4 port 22 ssh2
	ipExtractRe = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	adminRe     = regexp.MustCompile(`(?i)\b(?:sudo|admin)\b`)
)

// ParseLine converts one raw log line into an auth event. Lines without an
// IP or without a recognized login keyword produce no event and are silently
// skipped — that is filtering, not failure. The event's timestamp is the
// observation time passed by the caller, never parsed out of the line.
func ParseLine(line string, observed time.Time) (*core.AuthEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	lower := strings.ToLower(line)
	failed := strings.Contains(lower, "failed")
	success := strings.Contains(lower, "accepted") || strings.Contains(lower, "success")
	if !failed && !success {
		return nil, false
	}

	ip := ipExtractRe.FindString(line)
	if ip == "" {
		return nil, false
	}

	event := core.NewAuthEvent(ip, failed, success, observed)
	event.AdminActivity = adminRe.MatchString(line)
	event.Raw = line
	return event, true
}

// ReadFile reads a complete log file and parses it into an ordered event
// batch. A missing or unreadable file is a fatal error; an empty or
// fully-unparseable file is valid and yields zero events.
//
// Every event in the batch carries the same observation time, so batch
// brute-force detection reduces to pure per-source counting — deterministic
// across replays, independent of when the scan runs.
func ReadFile(path string) ([]*core.AuthEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceGone, path)
		}
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer f.Close()

	observed := time.Now().UTC()
	var events []*core.AuthEvent

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if event, ok := ParseLine(scanner.Text(), observed); ok {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file %s: %w", path, err)
	}

	return events, nil
}

// AuthLogCollector tails an auth log (sshd/PAM style) and publishes parsed
// events to the bus.
type AuthLogCollector struct {
	path   string
	tag    string
	cancel context.CancelFunc
}

// NewAuthLogCollector creates a collector for the given path. Defaults:
// /var/log/auth.log, tag "authlog".
func NewAuthLogCollector(path, tag string) *AuthLogCollector {
	if tag == "" {
		tag = "authlog"
	}
	if path == "" {
		path = "/var/log/auth.log"
	}
	return &AuthLogCollector{path: path, tag: tag}
}

func (c *AuthLogCollector) Name() string { return "authlog:" + c.path }

func (c *AuthLogCollector) Start(ctx context.Context, bus *core.EventBus, logger zerolog.Logger) error {
	ctx, c.cancel = context.WithCancel(ctx)

	return tailFile(ctx, c.path, func(line string) {
		event, ok := ParseLine(line, time.Now().UTC())
		if !ok {
			return
		}
		if err := bus.PublishEvent(c.tag, event); err != nil {
			logger.Error().Err(err).Str("collector", c.Name()).Msg("failed to publish event")
		}
	}, logger)
}

func (c *AuthLogCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}
