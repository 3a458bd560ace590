package collect

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/socsentry-project/socsentry/internal/core"
)

func collectorsConfig(typ, path string) core.CollectorsConfig {
	return core.CollectorsConfig{
		Enabled: true,
		Sources: []core.CollectorConfig{{Type: typ, LogPath: path}},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTailFile_NewLinesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")
	if err := os.WriteFile(path, []byte("old line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var lines []string
	err := tailFile(ctx, path, func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("tailFile() error: %v", err)
	}

	// Give the tail goroutine a moment to seek past the existing content.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("new line 1\nnew line 2\n")
	f.Close()

	waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if lines[0] != "new line 1" || lines[1] != "new line 2" {
		t.Errorf("lines = %v", lines)
	}
	for _, l := range lines {
		if l == "old line" {
			t.Error("tail replayed pre-existing content")
		}
	}
}

func TestTailFile_MissingFile(t *testing.T) {
	err := tailFile(context.Background(), filepath.Join(t.TempDir(), "nope.log"), func(string) {}, zerolog.Nop())
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTailFile_CancelStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	delivered := false

	ctx, cancel := context.WithCancel(context.Background())
	err := tailFile(ctx, path, func(string) {
		mu.Lock()
		delivered = true
		mu.Unlock()
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("tailFile() error: %v", err)
	}
	cancel()

	// After cancellation new lines must not be delivered.
	time.Sleep(400 * time.Millisecond)
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	f.WriteString("late line\n")
	f.Close()
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if delivered {
		t.Error("handler called after cancel")
	}
}

func TestManager_UnknownTypeSkipped(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cfg := collectorsConfig("bogus", "/nonexistent")
	if err := m.StartAll(context.Background(), cfg, nil); err != nil {
		t.Fatalf("StartAll() error: %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0 for unknown type", m.Count())
	}
}

func TestManager_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(zerolog.Nop())
	if err := m.StartAll(context.Background(), collectorsConfig("authlog", path), nil); err != nil {
		t.Fatalf("StartAll() error: %v", err)
	}
	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}

	m.StopAll()
	if m.Count() != 0 {
		t.Errorf("Count() = %d after StopAll, want 0", m.Count())
	}
}

func TestManager_BadPathNotRegistered(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cfg := collectorsConfig("authlog", filepath.Join(t.TempDir(), "missing.log"))
	if err := m.StartAll(context.Background(), cfg, nil); err != nil {
		t.Fatalf("StartAll() error: %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0 when the source cannot be opened", m.Count())
	}
}
