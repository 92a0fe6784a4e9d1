package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeName is returned for names that are not a single path element.
var ErrUnsafeName = errors.New("unsafe path element")

// Manager stages uploaded files under root/<chat_id>/<filename>.
type Manager struct {
	root string
}

// NewManager creates a staging manager rooted at the absolute form of root,
// creating it if needed.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("staging root is required")
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging root: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging root %s: %w", root, err)
	}
	return &Manager{root: root}, nil
}

// Root returns the absolute staging root directory.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the staging path for filename in chatID's directory.
func (m *Manager) Path(chatID, filename string) (string, error) {
	if err := SafeName(chatID); err != nil {
		return "", fmt.Errorf("chat_id: %w", err)
	}
	if err := SafeName(filename); err != nil {
		return "", fmt.Errorf("filename: %w", err)
	}
	return filepath.Join(m.root, chatID, filename), nil
}

// Save writes r to the staging path for filename and returns that path.
// A partially written file is removed on error.
func (m *Manager) Save(chatID, filename string, r io.Reader) (string, error) {
	path, err := m.Path(chatID, filename)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file %s: %w", filename, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staged file %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close staged file %s: %w", filename, err)
	}

	return path, nil
}

// Remove deletes a staged file. A missing file is not an error.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove staged file %s: %w", path, err)
	}
	return nil
}

// RemoveChat deletes chatID's staging directory and anything left in it.
func (m *Manager) RemoveChat(chatID string) error {
	if err := SafeName(chatID); err != nil {
		return fmt.Errorf("chat_id: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(m.root, chatID)); err != nil {
		return fmt.Errorf("failed to remove staging directory for chat %s: %w", chatID, err)
	}
	return nil
}

// SafeName reports whether name can be used as a single path element.
func SafeName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty name", ErrUnsafeName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafeName, name)
	}
	return nil
}
