// Package category maintains the bidirectional category index derived
// from the ingestor's event stream.
package category

import (
	"log/slog"
	"sort"
	"sync"

	"notecal/internal/config"
	"notecal/internal/event"
	"notecal/internal/frontmatter"
)

// Tracker keeps categoryToFiles and fileToCategories mutually consistent:
// a path appears in categoryToFiles[c] iff c appears in
// fileToCategories[path]. A category exists only while at least one file
// references it.
type Tracker struct {
	fields config.FieldMap
	logger *slog.Logger

	mu               sync.Mutex
	categoryToFiles  map[string]map[string]struct{}
	fileToCategories map[string]map[string]struct{}
	subs             []func([]string)
}

// NewTracker creates an empty tracker.
func NewTracker(fields config.FieldMap) *Tracker {
	return &Tracker{
		fields:           fields,
		logger:           slog.Default(),
		categoryToFiles:  make(map[string]map[string]struct{}),
		fileToCategories: make(map[string]map[string]struct{}),
	}
}

// SubscribeNames registers a callback invoked with the sorted category
// name list after every mutation.
func (t *Tracker) SubscribeNames(fn func([]string)) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// Apply is the ingestor subscriber callback.
func (t *Tracker) Apply(ev event.IndexerEvent) {
	switch ev.Kind {
	case event.FileChanged:
		t.applyChanged(ev.Path, ev.Source)
	case event.FileDeleted:
		t.applyDeleted(ev.Path)
	}
}

// Publish pushes the current sorted name list to all subscribers. The
// ingestor's indexing-complete signal calls this so consumers see one
// consistent snapshot instead of the initial scan's churn.
func (t *Tracker) Publish() {
	t.mu.Lock()
	names := t.namesLocked()
	subs := append([]func([]string){}, t.subs...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(names)
	}
}

// Categories returns the current sorted category names.
func (t *Tracker) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.namesLocked()
}

// FilesFor returns the sorted file paths referencing a category.
func (t *Tracker) FilesFor(category string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	files := t.categoryToFiles[category]
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// CategoriesOf returns the sorted categories recorded for a file.
func (t *Tracker) CategoriesOf(path string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cats := t.fileToCategories[path]
	out := make([]string, 0, len(cats))
	for c := range cats {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (t *Tracker) applyChanged(path string, src *event.RawEventSource) {
	next := make(map[string]struct{})
	if src != nil {
		for _, c := range frontmatter.StringList(src.Fields, t.fields.Categories) {
			next[c] = struct{}{}
		}
	}

	t.mu.Lock()
	prev := t.fileToCategories[path]

	changed := false
	for c := range prev {
		if _, keep := next[c]; !keep {
			t.removeLocked(path, c)
			changed = true
		}
	}
	for c := range next {
		if _, had := prev[c]; !had {
			t.addLocked(path, c)
			changed = true
		}
	}
	if len(next) == 0 {
		delete(t.fileToCategories, path)
	}
	t.mu.Unlock()

	if changed {
		t.Publish()
	}
}

func (t *Tracker) applyDeleted(path string) {
	t.mu.Lock()
	prev := t.fileToCategories[path]
	changed := len(prev) > 0
	for c := range prev {
		t.removeLocked(path, c)
	}
	delete(t.fileToCategories, path)
	t.mu.Unlock()

	if changed {
		t.Publish()
	}
}

// addLocked records path under category in both directions.
func (t *Tracker) addLocked(path, category string) {
	files, ok := t.categoryToFiles[category]
	if !ok {
		files = make(map[string]struct{})
		t.categoryToFiles[category] = files
	}
	files[path] = struct{}{}

	cats, ok := t.fileToCategories[path]
	if !ok {
		cats = make(map[string]struct{})
		t.fileToCategories[path] = cats
	}
	cats[category] = struct{}{}
}

// removeLocked removes path from category in both directions, pruning an
// emptied category. An inconsistency here is a bug in the index, logged
// rather than thrown so the index stays live.
func (t *Tracker) removeLocked(path, category string) {
	files, ok := t.categoryToFiles[category]
	if !ok {
		t.logger.Error("category index inconsistency: category missing on removal",
			"category", category, "path", path)
	} else {
		if _, had := files[path]; !had {
			t.logger.Error("category index inconsistency: file not recorded under category",
				"category", category, "path", path)
		}
		delete(files, path)
		if len(files) == 0 {
			delete(t.categoryToFiles, category)
		}
	}

	if cats, ok := t.fileToCategories[path]; ok {
		delete(cats, category)
	}
}

func (t *Tracker) namesLocked() []string {
	names := make([]string, 0, len(t.categoryToFiles))
	for c := range t.categoryToFiles {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}
