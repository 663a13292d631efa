// Package watch reports debounced changes to input files in a directory.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500

	// DefaultDebounceDelay is used when Config.DebounceDelay is zero.
	DefaultDebounceDelay = 500 * time.Millisecond
)

// Config configures input file watching.
type Config struct {
	// Pattern selects files by base name (doublestar syntax, matched
	// case-insensitively).
	Pattern string

	// DebounceDelay is how long to wait for more changes before reporting.
	DebounceDelay time.Duration
}

func (c Config) debounceDelay() time.Duration {
	if c.DebounceDelay <= 0 {
		return DefaultDebounceDelay
	}
	return c.DebounceDelay
}

// Operation indicates the type of file operation.
type Operation string

// OpCreate, OpModify, and OpDelete enumerate the file watch operation types.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event represents an input file change.
type Event struct {
	// Path is the absolute file path.
	Path      string
	Operation Operation
}

// Watcher watches one directory, non-recursively, and emits an Event per
// matching file whose content changed during a debounce window.
type Watcher struct {
	config  Config
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	pattern string

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection
	hashMu sync.RWMutex
	hashes map[string]string

	events chan Event

	droppedEvents atomic.Int64
}

// New creates a Watcher for dir.
func New(config Config, dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Pattern == "" {
		config.Pattern = "*"
	}

	return &Watcher{
		config:  config,
		dir:     dir,
		watcher: fsw,
		logger:  logger,
		pattern: strings.ToLower(config.Pattern),
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start records the content of files already present, so that only later
// changes are reported, and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !w.matches(path) {
			continue
		}
		if content, err := os.ReadFile(path); err == nil {
			w.SetHash(path, contentHash(content))
		}
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Input watcher started",
		"dir", w.dir,
		"pattern", w.config.Pattern,
		"debounce", w.config.debounceDelay())
	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// SetHash records the content hash for a file.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded content hash for a file.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) matches(path string) bool {
	ok, err := doublestar.Match(w.pattern, strings.ToLower(filepath.Base(path)))
	return err == nil && ok
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.debounceDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !w.matches(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Input change detected", "file", event.Name, "op", event.Op.String())
}

// flushPending reports accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			w.hashMu.Lock()
			_, tracked := w.hashes[path]
			delete(w.hashes, path)
			w.hashMu.Unlock()
			if tracked {
				w.sendEvent(Event{Path: path, Operation: OpDelete})
			}
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read changed file", "file", path, "error", err)
			continue
		}

		newHash := contentHash(content)
		oldHash, hadHash := w.GetHash(path)
		if hadHash && oldHash == newHash {
			continue
		}
		w.SetHash(path, newHash)

		op := OpModify
		if !hadHash {
			op = OpCreate
		}
		w.sendEvent(Event{Path: path, Operation: op})
	}
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "file", event.Path, "op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"file", event.Path,
			"total_dropped", dropped)
	}
}

func contentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
