package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ScannedFile represents a markdown file found during a folder scan.
type ScannedFile struct {
	RelPath  string // Relative path from vault root (e.g., "calendar/standup.md")
	Folder   string // Folder path (path components except filename, e.g., "calendar")
	AbsPath  string // Absolute file path
	Modified time.Time
	Size     int64
}

// Scanner enumerates the markdown files of one vault folder.
type Scanner struct {
	root   string // vault root
	folder string // tracked subfolder relative to root; "" tracks the whole vault
}

// NewScanner creates a scanner for the given vault root and tracked folder.
func NewScanner(root, folder string) *Scanner {
	return &Scanner{root: root, folder: folder}
}

// Root returns the vault root path.
func (s *Scanner) Root() string { return s.root }

// Abs returns the absolute path for a vault-relative path.
func (s *Scanner) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// Contains reports whether a vault-relative path lies inside the tracked
// folder.
func (s *Scanner) Contains(relPath string) bool {
	if s.folder == "" {
		return true
	}
	return relPath == s.folder ||
		len(relPath) > len(s.folder) && relPath[:len(s.folder)+1] == s.folder+"/"
}

// Scan walks the tracked folder and returns every markdown file found.
// Inaccessible entries are skipped so one bad path cannot abort the scan.
func (s *Scanner) Scan(ctx context.Context) ([]ScannedFile, error) {
	start := s.root
	if s.folder != "" {
		start = filepath.Join(s.root, filepath.FromSlash(s.folder))
	}
	if _, err := os.Stat(start); err != nil {
		return nil, fmt.Errorf("failed to access folder %s: %w", start, err)
	}

	var files []ScannedFile
	err := filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Skip unreadable entries but keep walking.
			return nil
		}

		if info.IsDir() {
			// Skip .obsidian directory (Obsidian configuration)
			if info.Name() == ".obsidian" {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".md" {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.Dir(relPath)
		if folder == "." || folder == "" {
			folder = ""
		} else {
			folder = filepath.ToSlash(folder)
		}

		files = append(files, ScannedFile{
			RelPath:  relPath,
			Folder:   folder,
			AbsPath:  path,
			Modified: info.ModTime(),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder %s: %w", start, err)
	}

	return files, nil
}
