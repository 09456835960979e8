// Package watch re-runs a conversion whenever its input spreadsheets change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coolbeans/taxo2rdf/pkg/table"
)

// Status indicates the operational state of a watcher.
type Status string

const (
	// StatusIdle indicates the watcher has not started or has stopped.
	StatusIdle Status = "idle"

	// StatusActive indicates the inputs are being watched.
	StatusActive Status = "active"

	// StatusError indicates the last change handler failed.
	StatusError Status = "error"
)

// DefaultDebounce is how long a burst of file events is batched before the
// handlers run. Spreadsheet editors write a file in several steps.
const DefaultDebounce = 2 * time.Second

// maxErrors bounds the error history kept in StatusInfo.
const maxErrors = 10

// StatusInfo provides status information for a watcher.
type StatusInfo struct {
	// Status is the current operational status.
	Status Status `json:"status"`

	// Runs is how many batches of changes were handled.
	Runs int `json:"runs"`

	// LastRun is when handlers last ran.
	LastRun time.Time `json:"last_run"`

	// LastChanged lists the files of the last batch.
	LastChanged []string `json:"last_changed,omitempty"`

	// Errors holds recent error messages.
	Errors []string `json:"errors,omitempty"`
}

// ChangeHandler is called with the sorted paths changed in one batch.
type ChangeHandler func(ctx context.Context, changed []string) error

// Watcher monitors input files and folders for changes.
type Watcher struct {
	paths    []string
	debounce time.Duration
	accept   func(path string) bool
	logger   *slog.Logger

	handlers  []ChangeHandler
	handlerMu sync.RWMutex

	status   StatusInfo
	statusMu sync.RWMutex

	running   bool
	runningMu sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the batching delay.
func WithDebounce(debounce time.Duration) Option {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// WithFilter replaces the default filter, which accepts the table formats
// and skips office lock files.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) {
		if accept != nil {
			w.accept = accept
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for paths. A path may be a file or a folder; folders
// are watched for any supported file, files only for themselves.
func New(paths []string, options ...Option) *Watcher {
	w := &Watcher{
		paths:    paths,
		debounce: DefaultDebounce,
		accept:   acceptTableFile,
		logger:   slog.Default(),
		status:   StatusInfo{Status: StatusIdle},
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func acceptTableFile(path string) bool {
	return table.IsSupported(path) && !strings.HasPrefix(filepath.Base(path), "~$")
}

// OnChange registers a handler for batches of changed files.
func (w *Watcher) OnChange(handler ChangeHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Status returns a snapshot of the watcher status.
func (w *Watcher) Status() StatusInfo {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()

	info := w.status
	info.LastChanged = append([]string(nil), w.status.LastChanged...)
	info.Errors = append([]string(nil), w.status.Errors...)
	return info
}

// Run watches until ctx is cancelled and returns ctx.Err(). Handler errors
// are recorded in the status and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.runningMu.Lock()
	if w.running {
		w.runningMu.Unlock()
		return errors.New("watcher is already running")
	}
	w.running = true
	w.runningMu.Unlock()

	defer func() {
		w.runningMu.Lock()
		w.running = false
		w.runningMu.Unlock()
		w.setStatus(StatusIdle)
	}()

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer notifier.Close()

	files, err := w.register(notifier)
	if err != nil {
		return err
	}

	w.setStatus(StatusActive)
	w.logger.Info("watching inputs", slog.Any("paths", w.paths), slog.Duration("debounce", w.debounce))

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(w.debounce)
	batchTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			batchTimer.Stop()
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, files) {
				continue
			}
			changed[filepath.Clean(event.Name)] = true
			batchTimer.Reset(w.debounce)

		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.Any("error", err))
			w.recordError(err.Error())

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for path := range changed {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			changed = make(map[string]bool)
			w.notify(ctx, batch)
		}
	}
}

// register adds the watched directories. Files are watched through their
// parent directory so that editors replacing the file are noticed.
func (w *Watcher) register(notifier *fsnotify.Watcher) (map[string]bool, error) {
	files := make(map[string]bool)
	directories := make(map[string]bool)

	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", path, err)
		}
		if info.IsDir() {
			directories[filepath.Clean(path)] = true
			continue
		}
		files[filepath.Clean(path)] = true
		directories[filepath.Dir(filepath.Clean(path))] = true
	}

	for directory := range directories {
		if err := notifier.Add(directory); err != nil {
			return nil, fmt.Errorf("watching %s: %w", directory, err)
		}
	}
	return files, nil
}

func (w *Watcher) relevant(event fsnotify.Event, files map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	name := filepath.Clean(event.Name)
	if !w.accept(name) {
		return false
	}

	// Inside a directory only watched for a file, other files are noise.
	if len(files) > 0 && !files[name] && !w.watchesDirectory(filepath.Dir(name)) {
		return false
	}
	return true
}

func (w *Watcher) watchesDirectory(directory string) bool {
	for _, path := range w.paths {
		if filepath.Clean(path) == directory {
			return true
		}
	}
	return false
}

// notify runs the handlers for one batch.
func (w *Watcher) notify(ctx context.Context, batch []string) {
	w.logger.Info("inputs changed", slog.Int("files", len(batch)), slog.Any("paths", batch))

	w.handlerMu.RLock()
	handlers := append([]ChangeHandler(nil), w.handlers...)
	w.handlerMu.RUnlock()

	failed := false
	for _, handler := range handlers {
		if err := handler(ctx, batch); err != nil {
			failed = true
			w.logger.Error("change handler failed", slog.Any("error", err))
			w.recordError(fmt.Sprintf("handler error: %v", err))
		}
	}

	w.statusMu.Lock()
	w.status.Runs++
	w.status.LastRun = time.Now()
	w.status.LastChanged = batch
	if !failed {
		w.status.Status = StatusActive
	}
	w.statusMu.Unlock()
}

// recordError records an error and keeps only the most recent ones.
func (w *Watcher) recordError(message string) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()

	w.status.Status = StatusError
	w.status.Errors = append(w.status.Errors, message)
	if len(w.status.Errors) > maxErrors {
		w.status.Errors = w.status.Errors[len(w.status.Errors)-maxErrors:]
	}
}

func (w *Watcher) setStatus(status Status) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	w.status.Status = status
}
