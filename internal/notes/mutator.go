package notes

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_mutator.go -package=mocks notecal/internal/notes Mutator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"notecal/internal/frontmatter"
)

// Mutator is the collaborator that persists a computed field value back
// into a note's frontmatter. The core writes exactly one field this way
// (the already-notified flag); everything else in a note belongs to the
// user.
type Mutator interface {
	// SetField atomically rewrites a single frontmatter field, leaving
	// the body and all other fields untouched.
	SetField(ctx context.Context, absPath, key string, value any) error
}

// FileMutator implements Mutator against the local filesystem.
type FileMutator struct{}

// NewFileMutator creates a FileMutator.
func NewFileMutator() *FileMutator {
	return &FileMutator{}
}

// SetField reads the note, updates one field, and replaces the file via a
// temp-file rename so a crash can never leave a half-written note behind.
func (m *FileMutator) SetField(ctx context.Context, absPath, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read note %s: %w", absPath, err)
	}

	fields, body, ok := frontmatter.Extract(content)
	if !ok {
		// A note without (or with malformed) frontmatter gains a fresh
		// block holding just this field; the original content becomes
		// the body.
		fields = map[string]any{}
		body = string(content)
	}
	fields[key] = value

	out, err := frontmatter.Render(fields, body)
	if err != nil {
		return fmt.Errorf("failed to render note %s: %w", absPath, err)
	}

	dir := filepath.Dir(absPath)
	tmp, err := os.CreateTemp(dir, ".notecal-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace note %s: %w", absPath, err)
	}
	return nil
}
