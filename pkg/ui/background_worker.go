// This file implements the BackgroundWorker that reloads tasks off the UI
// goroutine when the database changes.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tend/pkg/model"
	"github.com/vanderheijden86/tend/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is loading a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load", "hash"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Number of consecutive failures
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// Sender delivers messages to the running program. *tea.Program satisfies
// it.
type Sender interface {
	Send(msg tea.Msg)
}

// BackgroundWorker reloads the task snapshot when the database changes.
// It owns the file watcher, coalesces bursts of changes and skips snapshots
// whose content did not change.
type BackgroundWorker struct {
	// Configuration
	source  TaskSource
	timeout time.Duration
	logger  *log.Logger

	// State
	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // True if a change came in while processing
	snapshot []model.Task
	started  bool
	lastHash string // Content hash of last delivered snapshot

	// Error tracking
	lastError  *WorkerError
	errorCount int

	// Components
	watcher *watcher.Watcher
	program Sender

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	DBPath        string // database to watch; empty disables watching
	Source        TaskSource
	DebounceDelay time.Duration
	PollInterval  time.Duration
	ForcePoll     bool
	LoadTimeout   time.Duration
	Program       Sender
	Logger        *log.Logger
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	w := &BackgroundWorker{
		source:  cfg.Source,
		timeout: cfg.LoadTimeout,
		logger:  cfg.Logger,
		program: cfg.Program,
		state:   WorkerIdle,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if cfg.DBPath != "" {
		fw, err := watcher.NewWatcher(cfg.DBPath,
			watcher.WithDebounceDuration(cfg.DebounceDelay),
			watcher.WithPollInterval(cfg.PollInterval),
			watcher.WithForcePoll(cfg.ForcePoll),
			watcher.WithOnError(func(err error) {
				cfg.Logger.Warn("watcher error", "path", cfg.DBPath, "err", err)
			}),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// SetProgram attaches the program that receives TasksLoadedMsg. The program
// is usually created after the worker.
func (w *BackgroundWorker) SetProgram(p Sender) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Start begins watching for file changes and processing in the background.
// Start is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			return err
		}
		go w.processLoop()
	} else {
		// No watcher - close done channel immediately so Stop() doesn't block
		close(w.done)
	}

	return nil
}

// Stop halts the background worker and cleans up resources.
// Stop is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh manually triggers a reload.
// Has no effect if the worker is stopped; if a load is running another one
// follows it.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// GetSnapshot returns the last delivered snapshot (may be nil).
func (w *BackgroundWorker) GetSnapshot() []model.Task {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// processLoop watches for file changes and triggers processing.
func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-w.watcher.Changed():
			w.process()
		}
	}
}

// process loads a new snapshot and forwards it to the program.
func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// nil msg means deduped or no source
	msg := w.load()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if msg != nil && msg.Err == nil {
		w.snapshot = msg.Tasks
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	program := w.program
	w.mu.Unlock()

	if program != nil && msg != nil {
		program.Send(*msg)
	}

	if wasDirty {
		go w.process()
	}
}

// safeCompute executes fn and recovers from any panics.
// Returns a WorkerError if fn panics or fails, nil otherwise.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// load queries the source. It returns nil when there is no source or the
// content is unchanged since the last delivered snapshot.
func (w *BackgroundWorker) load() *TasksLoadedMsg {
	if w.source == nil {
		return nil
	}

	var msg TasksLoadedMsg
	loadErr := w.safeCompute("load", func() error {
		msg = loadTasks(w.source, w.timeout)
		return msg.Err
	})
	if loadErr != nil {
		w.recordError(loadErr)
		w.logger.Warn("reload failed", "err", loadErr)
		return &TasksLoadedMsg{Err: loadErr, Duration: msg.Duration}
	}

	var hash string
	if hashErr := w.safeCompute("hash", func() error {
		var err error
		hash, err = ComputeTasksHash(msg.Tasks)
		return err
	}); hashErr != nil {
		// unhashed snapshots are always delivered
		w.logger.Debug("hashing snapshot failed", "err", hashErr)
	}

	w.recordError(nil)

	w.mu.Lock()
	unchanged := hash != "" && hash == w.lastHash
	if hash != "" {
		w.lastHash = hash
	}
	w.mu.Unlock()

	if unchanged {
		w.logger.Debug("snapshot unchanged, skipping", "hash", hashPrefix(hash))
		return nil
	}

	w.logger.Debug("reloaded tasks", "count", len(msg.Tasks), "duration", msg.Duration, "hash", hashPrefix(hash))
	return &msg
}

// ComputeTasksHash returns a content hash of a snapshot.
func ComputeTasksHash(tasks []model.Task) (string, error) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LastHash returns the content hash from the last successful load.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// ResetHash clears the stored content hash, forcing the next load to be
// delivered even if content is unchanged.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}

// hashPrefix returns a safe prefix of the hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
