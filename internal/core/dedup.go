package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// AlertDedup is a short-lived suppression cache for repeated alerts. The
// brute force tracker is a continuous alarm: once a source exceeds its
// threshold, every further failure inside the window re-fires the same
// finding. Deployments that prefer one alert per source per window enable
// this cache via alerts.dedupe; it keys on (kind, source) with a TTL.
type AlertDedup struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	maxSize int
}

// NewAlertDedup creates a dedup cache. TTL controls how long a fingerprint is
// remembered. maxSize caps memory usage by evicting expired entries.
func NewAlertDedup(ttl time.Duration, maxSize int) *AlertDedup {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if maxSize <= 0 {
		maxSize = 50000
	}
	return &AlertDedup{
		seen:    make(map[string]time.Time, maxSize/2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// IsDuplicate returns true if an alert with the same kind and source was seen
// within the TTL window. If not a duplicate, it records the fingerprint.
func (d *AlertDedup) IsDuplicate(alert *Alert) bool {
	fp := d.fingerprint(alert)

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()

	if seenAt, ok := d.seen[fp]; ok {
		if now.Sub(seenAt) < d.ttl {
			return true
		}
	}

	d.seen[fp] = now
	if len(d.seen) > d.maxSize {
		d.evictLocked(now)
	}

	return false
}

// fingerprint hashes kind + source. Count and message are deliberately
// excluded: a re-fire with a higher count is still the same finding.
func (d *AlertDedup) fingerprint(alert *Alert) string {
	h := sha256.New()
	h.Write([]byte(alert.Kind.String()))
	h.Write([]byte{0})
	h.Write([]byte(alert.SourceID))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// evictLocked removes entries older than TTL. Called when cache exceeds maxSize.
func (d *AlertDedup) evictLocked(now time.Time) {
	for k, t := range d.seen {
		if now.Sub(t) >= d.ttl {
			delete(d.seen, k)
		}
	}
	// If still over capacity after TTL eviction, drop half
	if len(d.seen) > d.maxSize {
		count := 0
		target := len(d.seen) / 2
		for k := range d.seen {
			delete(d.seen, k)
			count++
			if count >= target {
				break
			}
		}
	}
}

// Size returns the current number of entries in the cache.
func (d *AlertDedup) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
