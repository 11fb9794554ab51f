package uploads

import (
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	path, err := store.Save("team-photo.PNG", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !strings.HasPrefix(path, "uploads/") {
		t.Errorf("expected path under uploads/, got %q", path)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("expected lowercased .png extension, got %q", path)
	}

	f, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(content) != "fake image bytes" {
		t.Errorf("content mismatch: %q", content)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Save("script.exe", strings.NewReader("nope")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := store.Save("noextension", strings.NewReader("nope")); err == nil {
		t.Error("expected error for missing extension")
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, path := range []string{"uploads/../secrets.txt", "uploads/a/b.png", "uploads/"} {
		if _, err := store.Open(path); err == nil {
			t.Errorf("expected error for path %q", path)
		}
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := store.Remove("uploads/123-missing.png"); err != nil {
		t.Errorf("Remove of missing file should not error, got %v", err)
	}
}
