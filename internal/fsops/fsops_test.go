// Tests in this file cover the default filesystem operations wiring.
package fsops

import (
	"io"
	"path/filepath"
	"testing"
)

func TestStdOSOpsStat(t *testing.T) {
	t.Parallel()

	fi, err := stdOSOps{}.Stat("fsops.go")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if fi.Name() != "fsops.go" {
		t.Fatalf("Stat returned file %q, want %q", fi.Name(), "fsops.go")
	}
}

func TestDefaultOpsCreateOpenRemove(t *testing.T) {
	t.Parallel()

	ops := DefaultOps()
	path := filepath.Join(t.TempDir(), "file.txt")

	w, err := ops.Files.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := io.WriteString(w, "hello"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	r, err := ops.Files.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("read %q, want %q", data, "hello")
	}

	if err := ops.OS.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	exists, err := FileExists(ops.OS, path)
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if exists {
		t.Fatal("file still exists after Remove")
	}
}

func TestCreateTruncatesExistingFile(t *testing.T) {
	t.Parallel()

	ops := DefaultOps()
	path := filepath.Join(t.TempDir(), "file.txt")

	for _, content := range []string{"a much longer first write", "short"} {
		w, err := ops.Files.Create(path)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		io.WriteString(w, content)
		w.Close()
	}

	r, err := ops.Files.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "short" {
		t.Fatalf("content = %q, want %q", data, "short")
	}
}

func TestFileExistsDirectory(t *testing.T) {
	t.Parallel()

	exists, err := FileExists(stdOSOps{}, t.TempDir())
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if exists {
		t.Fatal("directory reported as an existing file")
	}
}
