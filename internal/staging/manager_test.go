package staging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func TestNewManager(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	m, err := NewManager(root)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Root() != root {
		t.Errorf("Root() = %q, want %q", m.Root(), root)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("NewManager() should create root directory, stat err = %v", err)
	}

	if _, err := NewManager(""); err == nil {
		t.Error("NewManager(\"\") should return error")
	}
}

func TestNewManager_RelativeRoot(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager("uploaded_pdfs")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if !filepath.IsAbs(m.Root()) || filepath.Base(m.Root()) != "uploaded_pdfs" {
		t.Errorf("Root() = %q, want absolute path ending in uploaded_pdfs", m.Root())
	}
	if _, err := os.Stat("uploaded_pdfs"); err != nil {
		t.Errorf("NewManager() should create the relative root, stat err = %v", err)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: "report.pdf"},
		{name: "chat-123"},
		{name: "with space.pdf"},
		{name: "..pdf"},
		{name: "", wantErr: true},
		{name: "   ", wantErr: true},
		{name: ".", wantErr: true},
		{name: "..", wantErr: true},
		{name: "../etc/passwd", wantErr: true},
		{name: "dir/file.pdf", wantErr: true},
		{name: `dir\file.pdf`, wantErr: true},
		{name: "nul\x00.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsafeName) {
				t.Errorf("SafeName(%q) error = %v, want ErrUnsafeName", tt.name, err)
			}
		})
	}
}

func TestManager_SaveAndRemove(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	path, err := m.Save("chat-1", "doc.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	want := filepath.Join(m.Root(), "chat-1", "doc.pdf")
	if path != want {
		t.Errorf("Save() path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("staged content = %q, want %%PDF-1.4", data)
	}

	if err := m.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file should be gone after Remove(), stat err = %v", err)
	}

	// Removing twice is fine.
	if err := m.Remove(path); err != nil {
		t.Errorf("Remove() on missing file error = %v", err)
	}
}

func TestManager_Save_Errors(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := m.Save("..", "doc.pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsafeName) {
		t.Errorf("Save() with unsafe chat id error = %v, want ErrUnsafeName", err)
	}
	if _, err := m.Save("chat", "../doc.pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsafeName) {
		t.Errorf("Save() with unsafe filename error = %v, want ErrUnsafeName", err)
	}

	readErr := errors.New("connection reset")
	if _, err := m.Save("chat", "partial.pdf", iotest.ErrReader(readErr)); !errors.Is(err, readErr) {
		t.Errorf("Save() with failing reader error = %v, want %v", err, readErr)
	}
	if _, err := os.Stat(filepath.Join(m.Root(), "chat", "partial.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial file should be removed, stat err = %v", err)
	}
}

func TestManager_RemoveChat(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := m.Save("chat-1", "a.pdf", strings.NewReader("a")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := m.Save("chat-2", "b.pdf", strings.NewReader("b")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := m.RemoveChat("chat-1"); err != nil {
		t.Fatalf("RemoveChat() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.Root(), "chat-1")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("chat-1 directory should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.Root(), "chat-2", "b.pdf")); err != nil {
		t.Errorf("chat-2 file should remain, stat err = %v", err)
	}

	if err := m.RemoveChat("missing"); err != nil {
		t.Errorf("RemoveChat() on missing chat error = %v", err)
	}
	if err := m.RemoveChat(""); !errors.Is(err, ErrUnsafeName) {
		t.Errorf("RemoveChat(\"\") error = %v, want ErrUnsafeName", err)
	}
}
