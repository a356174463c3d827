package framestore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndPath(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "frames"), "png")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := store.Save(42, []byte("pixels"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != store.Path(42) {
		t.Fatalf("Save path %q != Path %q", path, store.Path(42))
	}
	if filepath.Base(path) != "frame_00000042.png" {
		t.Fatalf("unexpected frame file name %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "pixels" {
		t.Fatalf("read back %q", data)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the frame file, found %d entries", len(entries))
	}
}

func TestSaveRejectsNegativeIndex(t *testing.T) {
	store, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := store.Save(-1, nil); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestNewDefaultsFormatAndCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	store, err := New(dir, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if filepath.Ext(store.Path(0)) != ".png" {
		t.Fatalf("expected png default, got %q", store.Path(0))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}

	if _, err := New("", "png"); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
