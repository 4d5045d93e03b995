package manuscript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRead(t *testing.T) {
	t.Run("text file", func(t *testing.T) {
		path := writeFile(t, "book.txt", []byte("Title\r\n\r\nChapter 1: Start\r\nbody"))
		m, err := Read(path)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if m.Format != "txt" {
			t.Errorf("Format = %q, want txt", m.Format)
		}
		if m.Text != "Title\n\nChapter 1: Start\nbody" {
			t.Errorf("Text = %q", m.Text)
		}
	})

	t.Run("markdown file", func(t *testing.T) {
		path := writeFile(t, "book.md", []byte("# Title\n\nBody"))
		m, err := Read(path)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if m.Format != "md" || m.Text != "# Title\n\nBody" {
			t.Errorf("Read() = %+v", m)
		}
	})

	t.Run("unknown extension sniffed as text", func(t *testing.T) {
		path := writeFile(t, "book.manuscript", []byte("plain words here\n"))
		m, err := Read(path)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if m.Text != "plain words here\n" {
			t.Errorf("Text = %q", m.Text)
		}
	})

	t.Run("binary rejected", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d}
		path := writeFile(t, "cover.bin", png)
		if _, err := Read(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("invalid utf8 text rejected", func(t *testing.T) {
		path := writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0xfd})
		if _, err := Read(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		path := writeFile(t, "broken.pdf", []byte("not a pdf"))
		if _, err := Read(path); err == nil {
			t.Error("Read() should fail on a corrupt pdf")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Read(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("Read() should fail on a missing file")
		}
	})
}
