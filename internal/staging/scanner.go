package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StagedFile is a file left in the staging area.
type StagedFile struct {
	ChatID   string
	Filename string
	AbsPath  string
}

// ScanAll lists every staged file under the root. Files only exist there
// while an upload is in flight, so anything found at startup is leftover.
func (m *Manager) ScanAll(ctx context.Context) ([]StagedFile, error) {
	var files []StagedFile

	err := filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		chatID := filepath.Dir(rel)
		if chatID == "." {
			chatID = ""
		}

		files = append(files, StagedFile{
			ChatID:   filepath.ToSlash(chatID),
			Filename: d.Name(),
			AbsPath:  path,
		})
		return nil
	})
	if err != nil {
		return files, err
	}

	return files, nil
}

// Sweep removes leftover staged files and returns how many were deleted.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	files, err := m.ScanAll(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := m.Remove(f.AbsPath); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
