// Package indexer turns raw file changes into typed calendar events.
// It owns the file source (scanner + watcher), parses frontmatter into
// RawEventSource records, and fans out one IndexerEvent per observed
// change to every subscriber. Dispatch is single-goroutine: subscriber
// callbacks run synchronously on the scan/watch loop, so subscribers can
// update their own state without locking against the indexer.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"notecal/internal/config"
	"notecal/internal/event"
	"notecal/internal/frontmatter"
	"notecal/internal/vault"
)

// Subscriber receives every IndexerEvent after subscription.
type Subscriber func(event.IndexerEvent)

type pendingChange struct {
	change   vault.FileChange
	lastSeen time.Time
}

// Indexer watches the calendar folder and maintains the RawEventSource
// map, the single source of truth every downstream index derives from.
type Indexer struct {
	scanner  *vault.Scanner
	watcher  *vault.Watcher
	fields   config.FieldMap
	loc      *time.Location
	debounce time.Duration
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	subs    map[uuid.UUID]Subscriber
	onIdx   []func()
	indexed bool
	sources map[string]*event.RawEventSource
	pending map[string]pendingChange
}

// New creates an indexer over the given scanner.
func New(scanner *vault.Scanner, fields config.FieldMap, loc *time.Location, pollInterval, debounce time.Duration) *Indexer {
	ix := &Indexer{
		scanner:  scanner,
		fields:   fields,
		loc:      loc,
		debounce: debounce,
		logger:   slog.Default(),
		now:      time.Now,
		subs:     make(map[uuid.UUID]Subscriber),
		sources:  make(map[string]*event.RawEventSource),
		pending:  make(map[string]pendingChange),
	}
	ix.watcher = vault.NewWatcher(scanner, pollInterval, ix.handleChanges)
	return ix
}

// Subscribe registers a callback for all future IndexerEvents and returns
// a handle for Unsubscribe.
func (ix *Indexer) Subscribe(fn Subscriber) uuid.UUID {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id := uuid.New()
	ix.subs[id] = fn
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (ix *Indexer) Unsubscribe(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.subs, id)
}

// OnIndexed registers a callback for the one-shot indexing-complete
// signal. If the initial scan already finished, the callback fires
// immediately.
func (ix *Indexer) OnIndexed(fn func()) {
	ix.mu.Lock()
	if ix.indexed {
		ix.mu.Unlock()
		fn()
		return
	}
	ix.onIdx = append(ix.onIdx, fn)
	ix.mu.Unlock()
}

// Indexed reports whether the initial full scan has completed.
func (ix *Indexer) Indexed() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.indexed
}

// Watching reports whether the change watcher is running.
func (ix *Indexer) Watching() bool {
	return ix.watcher.IsRunning()
}

// Source returns the current RawEventSource for a path, if tracked.
func (ix *Indexer) Source(path string) (*event.RawEventSource, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	src, ok := ix.sources[path]
	return src, ok
}

// Run performs the initial full scan, fires the indexing-complete signal,
// and starts the change watcher. Errors for individual files are logged
// but don't stop indexing.
func (ix *Indexer) Run(ctx context.Context) error {
	files, err := ix.scanner.Scan(ctx)
	if err != nil {
		return err
	}

	ix.logger.Info("starting initial index", "total_files", len(files))
	var successCount, errorCount int
	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if ok := ix.applyChange(vault.FileChange{
			Path:     f.RelPath,
			AbsPath:  f.AbsPath,
			Type:     vault.ChangeModified,
			Modified: f.Modified,
		}); !ok {
			errorCount++
			continue
		}
		successCount++
	}
	ix.logger.Info("initial index completed", "total_files", len(files), "success", successCount, "errors", errorCount)

	ix.mu.Lock()
	ix.indexed = true
	callbacks := ix.onIdx
	ix.onIdx = nil
	ix.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}

	ix.watcher.Seed(files)
	ix.watcher.Start(ctx)
	return nil
}

// Stop tears the watcher down. Events already being dispatched complete;
// nothing further is emitted.
func (ix *Indexer) Stop() {
	ix.watcher.Stop()
}

// handleChanges runs on the watcher goroutine for every poll batch. New
// changes are merged into the pending set (latest state wins) and any
// entry that has been quiet for the debounce window is flushed, so a file
// being rewritten in a burst is read once, in its final state.
func (ix *Indexer) handleChanges(changes []vault.FileChange) {
	now := ix.now()

	ix.mu.Lock()
	for _, c := range changes {
		ix.pending[c.Path] = pendingChange{change: c, lastSeen: now}
	}
	var due []vault.FileChange
	for path, p := range ix.pending {
		if now.Sub(p.lastSeen) >= ix.debounce {
			due = append(due, p.change)
			delete(ix.pending, path)
		}
	}
	ix.mu.Unlock()

	for _, c := range due {
		ix.applyChange(c)
	}
}

// FlushPending forces all coalesced changes out immediately, regardless
// of the debounce window. The watcher calls applyChange on its own
// cadence; this exists for teardown and tests.
func (ix *Indexer) FlushPending() {
	ix.mu.Lock()
	var due []vault.FileChange
	for path, p := range ix.pending {
		due = append(due, p.change)
		delete(ix.pending, path)
	}
	ix.mu.Unlock()

	for _, c := range due {
		ix.applyChange(c)
	}
}

// applyChange parses one observed change into a RawEventSource mutation
// and emits the corresponding IndexerEvent. Returns false when the change
// produced no event (unreadable file, unknown delete).
func (ix *Indexer) applyChange(c vault.FileChange) bool {
	if !ix.scanner.Contains(c.Path) {
		return false
	}

	if c.Type == vault.ChangeDeleted {
		ix.mu.Lock()
		_, known := ix.sources[c.Path]
		delete(ix.sources, c.Path)
		ix.mu.Unlock()
		if !known {
			return false
		}
		ix.logger.Debug("file deleted", "path", c.Path)
		ix.emit(event.IndexerEvent{Kind: event.FileDeleted, Path: c.Path})
		return true
	}

	src, err := ix.parseFile(c)
	if err != nil {
		// Unreadable files produce no event at all; the file may be
		// mid-rename or already gone, and the next poll settles it.
		ix.logger.Warn("failed to read file", "path", c.Path, "error", err)
		return false
	}

	ix.mu.Lock()
	ix.sources[c.Path] = src
	ix.mu.Unlock()
	ix.logger.Debug("file indexed", "path", c.Path, "untracked", src.Untracked, "all_day", src.AllDay)
	ix.emit(event.IndexerEvent{Kind: event.FileChanged, Path: c.Path, Source: src})
	return true
}

// parseFile reads a note and builds its RawEventSource. A malformed or
// absent frontmatter block never fails: the file is indexed as untracked
// until a later edit makes it parseable.
func (ix *Indexer) parseFile(c vault.FileChange) (*event.RawEventSource, error) {
	content, err := os.ReadFile(c.AbsPath)
	if err != nil {
		return nil, err
	}

	src := &event.RawEventSource{
		Path:     c.Path,
		Modified: c.Modified,
		Folder:   folderOf(c.Path),
	}

	fields, _, ok := frontmatter.Extract(content)
	if !ok {
		src.Untracked = true
		src.Fields = map[string]any{}
		return src, nil
	}
	src.Fields = fields

	_, startOK := fields[ix.fields.Start]
	if startOK {
		if _, _, parsed := frontmatter.DateTime(fields, ix.fields.Start, ix.loc); !parsed {
			startOK = false
		}
	}
	dateOK := false
	if _, _, parsed := frontmatter.DateTime(fields, ix.fields.Date, ix.loc); parsed {
		dateOK = true
	}

	switch {
	case startOK:
		src.AllDay = frontmatter.Bool(fields, ix.fields.AllDay)
	case dateOK:
		src.AllDay = true
	default:
		src.Untracked = true
	}
	return src, nil
}

// emit fans one event out to every subscriber. The subscriber list is
// snapshotted so a callback may unsubscribe itself.
func (ix *Indexer) emit(ev event.IndexerEvent) {
	ix.mu.Lock()
	subs := make([]Subscriber, 0, len(ix.subs))
	for _, fn := range ix.subs {
		subs = append(subs, fn)
	}
	ix.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func folderOf(relPath string) string {
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' {
			return relPath[:i]
		}
	}
	return ""
}
