package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.PNG", true},
		{"photo.bmp", true},
		{"animation.gif", true},
		{"photo.webp", true},
		{"photo.JPG", true},
		{"notes.txt", false},
		{"archive.tar.gz", false},
		{"noextension", false},
		{"photo.tiff", false},
	}

	for _, test := range tests {
		if got := IsImage(test.name); got != test.expected {
			t.Errorf("IsImage(%s) = %v, expected %v", test.name, got, test.expected)
		}
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"B.PNG", "a.jpg", "notes.txt", ".hidden.png", "photo.webp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "B.PNG"),
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "photo.webp"),
	}
	if len(paths) != len(expected) {
		t.Fatalf("Expected %d images, got %d: %v", len(expected), len(paths), paths)
	}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("Expected paths[%d] = %s, got %s", i, expected[i], paths[i])
		}
	}
}

func TestListImagesMissingDir(t *testing.T) {
	if _, err := ListImages(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestDestPath(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"photo.jpg", "out/photo_cropped.jpg"},
		{"path/to/photo.png", "out/photo_cropped.png"},
		{"test.image.jpg", "out/test.image_cropped.jpg"},
		{"noextension", "out/noextension_cropped"},
	}

	for _, test := range tests {
		expected := filepath.FromSlash(test.expected)
		if got := DestPath(test.src, "out"); got != expected {
			t.Errorf("DestPath(%s) = %s, expected %s", test.src, got, expected)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Expected directory to exist: %v", err)
	}

	// A second call on an existing directory is fine.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing directory failed: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(path) {
		t.Error("Expected FileExists to report an existing file")
	}
	if FileExists(dir) {
		t.Error("Expected FileExists to reject a directory")
	}
	if FileExists(filepath.Join(dir, "missing.txt")) {
		t.Error("Expected FileExists to reject a missing path")
	}
}
