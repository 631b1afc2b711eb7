package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func newDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	if err := os.WriteFile(path, []byte("initial"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	path := newDB(t)

	var changed atomic.Bool
	w, err := NewWatcher(path,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("modified content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, time.Second, changed.Load) {
		t.Error("expected change to be detected")
	}
}

func TestWatcher_DetectsWALChange(t *testing.T) {
	path := newDB(t)

	w, err := NewWatcher(path,
		WithDebounceDuration(30*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path+"-wal", []byte("frame"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for WAL change")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	path := newDB(t)

	var changed atomic.Bool
	w, err := NewWatcher(path,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected polling mode")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("modified content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, time.Second, changed.Load) {
		t.Error("expected change to be detected by polling")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	path := newDB(t)

	var changed atomic.Bool
	w, err := NewWatcher(path,
		WithDebounceDuration(20*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if w.IsPolling() {
		t.Skip("fsnotify unavailable")
	}

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if changed.Load() {
		t.Error("unrelated file should not trigger a change")
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	path := newDB(t)

	var (
		mu     sync.Mutex
		gotErr error
	)
	w, err := NewWatcher(path,
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			mu.Lock()
			gotErr = err
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return errors.Is(gotErr, ErrFileRemoved)
	})
	if !ok {
		t.Errorf("expected ErrFileRemoved, got %v", gotErr)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(newDB(t))
	if err != nil {
		t.Fatal(err)
	}

	if w.IsStarted() {
		t.Error("should not be started before Start")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("should be stopped")
	}

	if err := w.Start(); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	w.Stop()
}

func TestWatcher_MissingFileIsFine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	w, err := NewWatcher(path, WithForcePoll(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start on a missing file: %v", err)
	}
	w.Stop()
}

func TestWatcher_PathAndInterval(t *testing.T) {
	w, err := NewWatcher("tasks.db", WithPollInterval(3*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("path should be absolute: %s", w.Path())
	}
	if w.PollInterval() != 3*time.Second {
		t.Errorf("poll interval = %v", w.PollInterval())
	}

	w, _ = NewWatcher("tasks.db", WithPollInterval(0))
	if w.PollInterval() != DefaultPollInterval {
		t.Errorf("zero interval should keep the default, got %v", w.PollInterval())
	}
}

func TestWatcher_Matches(t *testing.T) {
	w, err := NewWatcher("/data/tasks.db")
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]bool{
		"/data/tasks.db":         true,
		"/data/tasks.db-wal":     true,
		"/data/tasks.db-journal": true,
		"/data/tasks.db-shm":     false,
		"/data/tasks.dbx":        false,
		"/data/other.db":         false,
	} {
		if got := w.matches(name); got != want {
			t.Errorf("matches(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEnvBool(t *testing.T) {
	for val, want := range map[string]bool{
		"1": true, "true": true, "YES": true, " on ": true,
		"0": false, "false": false, "nope": false, "": false,
	} {
		t.Setenv("TEND_TEST_BOOL", val)
		if got := envBool("TEND_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", val, got, want)
		}
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(EnvForcePoll, "1")

	w, err := NewWatcher(newDB(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected polling mode when TEND_FORCE_POLL is set")
	}
}
