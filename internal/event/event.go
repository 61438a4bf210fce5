package event

import "time"

// RawEventSource is the parsed representation of one tracked note file.
// It is replaced wholesale whenever the file source reports a change and
// removed on delete; nothing mutates it in place.
type RawEventSource struct {
	// Path is the vault-relative path and the identity of the source.
	Path string

	// Modified is the file's last-modified timestamp.
	Modified time.Time

	// Fields is the parsed frontmatter field map. Keys are whatever the
	// configured field schema says; the core never hardcodes field names.
	Fields map[string]any

	// Folder is the vault-relative containing folder ("" for root).
	Folder string

	// AllDay is true when the note carries a date-only field rather than
	// a timed start.
	AllDay bool

	// Untracked marks a file that lives in the calendar folder but is
	// missing (or has unparseable) required timing fields. Untracked
	// sources stay in the index so a later edit can promote them.
	Untracked bool
}

// IndexerEventKind tags the variant of an IndexerEvent.
type IndexerEventKind int

const (
	// FileChanged indicates a file was created or modified.
	FileChanged IndexerEventKind = iota
	// FileDeleted indicates a file was removed.
	FileDeleted
)

// IndexerEvent is emitted exactly once per observed file change.
// Source is nil for FileDeleted.
type IndexerEvent struct {
	Kind   IndexerEventKind
	Path   string
	Source *RawEventSource
}

// CalendarEvent is a published calendar entry: either a physical event
// backed by a file, or a virtual instance of a recurring series computed
// during an expansion pass and never persisted.
type CalendarEvent struct {
	// ID is stable: the file path for physical events, or
	// "<source path>#<RFC3339 start>" for virtual instances.
	ID    string `json:"id"`
	Title string `json:"title"`

	// Start/End are set for timed events; Date for all-day events.
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
	Date  time.Time `json:"date,omitzero"`

	AllDay bool `json:"allDay"`

	// Virtual is true for computed recurring instances.
	Virtual bool `json:"virtual"`

	// SourcePath is the backing file for physical events, or the
	// generating source file for virtual instances.
	SourcePath string `json:"sourcePath"`

	// RecurrenceID links a materialized physical instance (or a virtual
	// one) back to its generating series.
	RecurrenceID string `json:"recurrenceId,omitempty"`

	// Skipped events stay indexed but are excluded from the default
	// visible view.
	Skipped bool `json:"skipped,omitempty"`

	Categories []string `json:"categories,omitempty"`
}
