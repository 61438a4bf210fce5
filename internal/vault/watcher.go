package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ChangeType represents the kind of change detected by the watcher.
type ChangeType int

const (
	// ChangeModified indicates a file was added or modified. Snapshot
	// diffing does not distinguish between the two.
	ChangeModified ChangeType = iota
	// ChangeDeleted indicates a file was removed.
	ChangeDeleted
)

// FileChange represents a single detected change in the tracked folder.
type FileChange struct {
	Path       string // vault-relative path
	AbsPath    string
	Type       ChangeType
	Modified   time.Time
	DetectedAt time.Time
}

type fileStamp struct {
	modified time.Time
	size     int64
	abs      string
}

// Watcher polls the tracked folder and reports per-file changes by
// diffing successive scan snapshots against the last known state. All
// callbacks run on the watcher's own goroutine, so a single consumer
// needs no locking of its own.
type Watcher struct {
	scanner  *Scanner
	interval time.Duration
	onChange func([]FileChange)
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	known   map[string]fileStamp
}

// NewWatcher creates a watcher over the scanner's folder. onChange is
// invoked after every poll with the batch of detected changes; a quiet
// poll delivers an empty batch, so consumers holding coalesced state can
// flush it once the folder settles.
func NewWatcher(scanner *Scanner, interval time.Duration, onChange func([]FileChange)) *Watcher {
	return &Watcher{
		scanner:  scanner,
		interval: interval,
		onChange: onChange,
		logger:   slog.Default(),
		known:    make(map[string]fileStamp),
	}
}

// Seed records a snapshot as the known state so already-indexed files do
// not re-emit on the first poll. Call before Start.
func (w *Watcher) Seed(files []ScannedFile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range files {
		w.known[f.RelPath] = fileStamp{modified: f.Modified, size: f.Size, abs: f.AbsPath}
	}
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start(parentCtx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	w.logger.Info("watcher started", "root", w.scanner.Root(), "interval", w.interval)
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stop cancels the polling goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.logger.Info("watcher stopped", "root", w.scanner.Root())
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.onChange(w.poll(ctx))
		}
	}
}

// poll scans once and diffs against the known state.
func (w *Watcher) poll(ctx context.Context) []FileChange {
	files, err := w.scanner.Scan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("watcher scan failed", "error", err)
		}
		return nil
	}

	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	var changes []FileChange
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.RelPath] = true
		prev, ok := w.known[f.RelPath]
		if ok && prev.modified.Equal(f.Modified) && prev.size == f.Size {
			continue
		}
		w.known[f.RelPath] = fileStamp{modified: f.Modified, size: f.Size, abs: f.AbsPath}
		changes = append(changes, FileChange{
			Path:       f.RelPath,
			AbsPath:    f.AbsPath,
			Type:       ChangeModified,
			Modified:   f.Modified,
			DetectedAt: now,
		})
	}

	for path, stamp := range w.known {
		if seen[path] {
			continue
		}
		delete(w.known, path)
		changes = append(changes, FileChange{
			Path:       path,
			AbsPath:    stamp.abs,
			Type:       ChangeDeleted,
			DetectedAt: now,
		})
	}

	return changes
}
