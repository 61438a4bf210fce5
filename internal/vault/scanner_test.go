package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, relPath, content string) string {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	return fullPath
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "standup.md", "# Standup")
	writeFile(t, root, "calendar/review.md", "# Review")
	writeFile(t, root, "calendar/deep/retro.md", "# Retro")
	writeFile(t, root, "notes.txt", "not markdown")
	writeFile(t, root, ".obsidian/config.md", "skipped")

	scanner := NewScanner(root, "")
	files, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(files) != 3 {
		t.Errorf("Scan() found %d files, want 3", len(files))
	}

	foundPaths := make(map[string]string)
	for _, f := range files {
		foundPaths[f.RelPath] = f.Folder
	}

	wantFolders := map[string]string{
		"standup.md":             "",
		"calendar/review.md":     "calendar",
		"calendar/deep/retro.md": "calendar/deep",
	}
	for rel, folder := range wantFolders {
		got, ok := foundPaths[rel]
		if !ok {
			t.Errorf("Scan() did not find expected path: %s", rel)
			continue
		}
		if got != folder {
			t.Errorf("Scan() folder for %s = %q, want %q", rel, got, folder)
		}
	}
}

func TestScanner_ScanTrackedFolder(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "outside.md", "# Outside")
	writeFile(t, root, "calendar/inside.md", "# Inside")

	scanner := NewScanner(root, "calendar")
	files, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "calendar/inside.md" {
		t.Errorf("Scan() = %v, want only calendar/inside.md", files)
	}
}

func TestScanner_Contains(t *testing.T) {
	scanner := NewScanner("/vault", "calendar")

	if !scanner.Contains("calendar/event.md") {
		t.Error("Contains(calendar/event.md) = false, want true")
	}
	if scanner.Contains("other/event.md") {
		t.Error("Contains(other/event.md) = true, want false")
	}
	if scanner.Contains("calendarish/event.md") {
		t.Error("Contains(calendarish/event.md) = true, want false")
	}

	all := NewScanner("/vault", "")
	if !all.Contains("anywhere/event.md") {
		t.Error("Contains() with no tracked folder should accept everything")
	}
}

func TestScanner_MissingFolder(t *testing.T) {
	scanner := NewScanner(filepath.Join(t.TempDir(), "gone"), "")
	if _, err := scanner.Scan(context.Background()); err == nil {
		t.Error("Scan() of missing folder: expected error")
	}
}
