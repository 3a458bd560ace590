package core

import (
	"fmt"
	"testing"
	"time"
)

func TestAlertDedup_FirstAlert_NotDuplicate(t *testing.T) {
	d := NewAlertDedup(5*time.Second, 1000)
	a := NewAlert(AlertBruteForce, "1.2.3.4", 3, SeverityHigh, "m")
	if d.IsDuplicate(a) {
		t.Error("first alert should not be a duplicate")
	}
}

func TestAlertDedup_SameKindAndSource_IsDuplicate(t *testing.T) {
	d := NewAlertDedup(5*time.Second, 1000)
	d.IsDuplicate(NewAlert(AlertBruteForce, "1.2.3.4", 3, SeverityHigh, "three"))
	// Count and message differ; the finding is the same.
	if !d.IsDuplicate(NewAlert(AlertBruteForce, "1.2.3.4", 7, SeverityHigh, "seven")) {
		t.Error("re-fire with higher count should be a duplicate")
	}
}

func TestAlertDedup_DifferentKind_NotDuplicate(t *testing.T) {
	d := NewAlertDedup(5*time.Second, 1000)
	d.IsDuplicate(NewAlert(AlertBruteForce, "1.2.3.4", 3, SeverityHigh, "m"))
	if d.IsDuplicate(NewAlert(AlertCredentialStuffing, "1.2.3.4", 3, SeverityCritical, "m")) {
		t.Error("different kind should not be a duplicate")
	}
}

func TestAlertDedup_DifferentSource_NotDuplicate(t *testing.T) {
	d := NewAlertDedup(5*time.Second, 1000)
	d.IsDuplicate(NewAlert(AlertBruteForce, "1.2.3.4", 3, SeverityHigh, "m"))
	if d.IsDuplicate(NewAlert(AlertBruteForce, "5.6.7.8", 3, SeverityHigh, "m")) {
		t.Error("different source should not be a duplicate")
	}
}

func TestAlertDedup_TTLExpiry(t *testing.T) {
	d := NewAlertDedup(50*time.Millisecond, 1000)
	a := NewAlert(AlertBruteForce, "1.2.3.4", 3, SeverityHigh, "m")
	d.IsDuplicate(a)
	time.Sleep(100 * time.Millisecond)
	if d.IsDuplicate(a) {
		t.Error("alert should not be duplicate after TTL expiry")
	}
}

func TestAlertDedup_MaxSizeEviction(t *testing.T) {
	d := NewAlertDedup(10*time.Second, 10)
	for i := 0; i < 20; i++ {
		d.IsDuplicate(NewAlert(AlertBruteForce, fmt.Sprintf("10.0.0.%d", i), 3, SeverityHigh, "m"))
	}
	if d.Size() > 15 { // some slack for eviction timing
		t.Errorf("cache size %d exceeds expected cap", d.Size())
	}
}

func TestAlertDedup_Size(t *testing.T) {
	d := NewAlertDedup(5*time.Second, 1000)
	if d.Size() != 0 {
		t.Errorf("expected size 0, got %d", d.Size())
	}
	d.IsDuplicate(NewAlert(AlertBruteForce, "1.1.1.1", 3, SeverityHigh, "m"))
	d.IsDuplicate(NewAlert(AlertPhishing, "2.2.2.2", 0, SeverityMedium, "m"))
	if d.Size() != 2 {
		t.Errorf("expected size 2, got %d", d.Size())
	}
}
