package library

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
)

func TestScanDirectoryFindsOnlyRecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("book-one.pdf")
	write("book-two.epub")
	write("cover.jpg")
	write("notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	write(filepath.Join("subdir", "book-three.PDF"))

	got, err := ScanDirectory(dir)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)

	want := []string{"book-one.pdf", "book-three.PDF", "book-two.epub"}
	if len(names) != len(want) {
		t.Fatalf("found %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("found[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestScanDirectoryNonexistentDirectory(t *testing.T) {
	if _, err := ScanDirectory(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("expected an error scanning a nonexistent directory")
	}
}

func TestHashFileIsStableAndContentSensitive(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	if err := os.WriteFile(a, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := hashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := hashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("identical content hashed differently: %s vs %s", h1, h2)
	}

	if err := os.WriteFile(b, []byte("different content"), 0o644); err != nil {
		t.Fatal(err)
	}
	h3, err := hashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h3 {
		t.Error("different content hashed the same")
	}
}

func TestFilenameDefaultTitleNormalizesSeparators(t *testing.T) {
	cases := map[string]string{
		"/books/the_pragmatic-programmer.pdf": "the pragmatic programmer",
		"clean-code.epub":                     "clean code",
		"/a/b/  spaced_out  .pdf":              "spaced out",
	}
	for path, want := range cases {
		if got := filenameDefaultTitle(path); got != want {
			t.Errorf("filenameDefaultTitle(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestScannerGetUnknownTask(t *testing.T) {
	s := NewScanner(nil)
	if _, ok := s.Get(uuid.New()); ok {
		t.Error("expected Get on an unknown task id to report not-found")
	}
}

func TestScannerStartTracksTaskImmediately(t *testing.T) {
	// The directory is empty, so imp.Import finds no files and finishes
	// without touching the nil db; Start must still register the task
	// synchronously before the background goroutine runs.
	s := NewScanner(New(nil, nil))
	task := s.Start(t.TempDir())
	if task.Status != TaskPending && task.Status != TaskRunning && task.Status != TaskDone {
		t.Errorf("unexpected initial status %q", task.Status)
	}
	got, ok := s.Get(task.ID)
	if !ok {
		t.Fatal("expected Start to register the task for immediate Get")
	}
	if got.ID != task.ID || got.Directory != task.Directory {
		t.Errorf("Get returned mismatched task: %+v", got)
	}
}
