package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// memFile adapts a bytes.Reader to multipart.File for tests.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func TestSaveTemp_WritesFileWithExtension(t *testing.T) {
	dir := t.TempDir()

	content := []byte("fake image bytes")
	path, err := SaveTemp(memFile{bytes.NewReader(content)}, "avatar.png", dir)
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("temp file written to %q, want inside %q", path, dir)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("temp file %q should keep the .png extension", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("temp file content does not match the uploaded bytes")
	}
}

func TestSaveTemp_UniqueNames(t *testing.T) {
	dir := t.TempDir()

	p1, err := SaveTemp(memFile{bytes.NewReader([]byte("a"))}, "a.jpg", dir)
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}
	p2, err := SaveTemp(memFile{bytes.NewReader([]byte("b"))}, "a.jpg", dir)
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}

	if p1 == p2 {
		t.Error("SaveTemp() produced the same path for two uploads of the same filename")
	}
}

func TestSaveTemp_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tmp")

	if _, err := SaveTemp(memFile{bytes.NewReader([]byte("x"))}, "c.webp", dir); err != nil {
		t.Fatalf("SaveTemp() should create missing directories, got error: %v", err)
	}
}
