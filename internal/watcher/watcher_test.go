package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ReloadOnWatchedFileChange(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(records, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w := NewWatcher([]string{records}, func() error {
		reloads.Add(1)
		return nil
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(records, []byte(`[{"name":"x"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 1 }) {
		t.Fatal("reload never fired")
	}
}

func TestWatcher_DebounceCollapsesBurst(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "catalog.json")
	vectors := filepath.Join(dir, "catalog.vec")
	for _, f := range []string{records, vectors} {
		if err := os.WriteFile(f, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	var reloads atomic.Int32
	w := NewWatcher([]string{records, vectors}, func() error {
		reloads.Add(1)
		return nil
	}, WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Rapid writes to both files should produce a single reload.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(records, []byte("a"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(vectors, []byte("b"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 1 }) {
		t.Fatal("reload never fired")
	}
	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1 for a debounced burst", n)
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(records, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w := NewWatcher([]string{records}, func() error {
		reloads.Add(1)
		return nil
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("y"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("reloads = %d, want 0 for unrelated file", n)
	}
}

func TestWatcher_ReloadErrorDoesNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	records := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(records, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w := NewWatcher([]string{records}, func() error {
		reloads.Add(1)
		return errors.New("bad catalog")
	}, WithDebounce(50*time.Millisecond), WithLogger(zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(records, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 1 }) {
		t.Fatal("first reload never fired")
	}

	if err := os.WriteFile(records, []byte("b"), 0600); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 2 }) {
		t.Error("watcher stopped after a failed reload")
	}
}
