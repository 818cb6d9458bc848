package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := AtomicWriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	// No temp droppings left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only final file in dir, got %d entries", len(entries))
	}
}

func TestAtomicWriteFile_OverwritePreservesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWriteFile(path, []byte("replaced"), 0o644); err != nil {
		t.Fatalf("AtomicWriteFile() error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "replaced" {
		t.Errorf("content = %q", data)
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := AtomicWriteJSON(path, map[string]int{"n": 1}); err != nil {
		t.Fatalf("AtomicWriteJSON() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("expected trailing newline")
	}
	if !strings.Contains(string(data), "  \"n\": 1") {
		t.Errorf("expected 2-space indent, got %q", data)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	content := []byte("known content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if got != want {
		t.Errorf("HashFile() = %q, want %q", got, want)
	}
}

func TestHashFile_Missing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("copy me exactly")
	if err := os.WriteFile(src, content, 0o750); err != nil {
		t.Fatal(err)
	}

	digest, size, mode, err := CopyFile(src, dst)
	if err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}

	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	if mode.Perm() != 0o750 {
		t.Errorf("mode = %v, want 0750", mode.Perm())
	}

	sum := sha256.Sum256(content)
	if digest != hex.EncodeToString(sum[:]) {
		t.Errorf("digest = %q", digest)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("dst content = %q", got)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Errorf("dst perm = %v, want source perm 0750", info.Mode().Perm())
	}
}

func TestCopyTree_Merge(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	write := func(root, rel, content string) {
		t.Helper()
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(src, "a.txt", "new a")
	write(src, "sub/b.txt", "new b")
	write(dst, "a.txt", "old a")
	write(dst, "keep.txt", "untouched")

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree() error: %v", err)
	}

	checks := map[string]string{
		"a.txt":     "new a",
		"sub/b.txt": "new b",
		"keep.txt":  "untouched",
	}
	for rel, want := range checks {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", rel, data, want)
		}
	}
}

func TestReadFileWithLimit(t *testing.T) {
	dir := t.TempDir()

	small := filepath.Join(dir, "small")
	if err := os.WriteFile(small, []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := ReadFileWithLimit(small)
	if err != nil {
		t.Fatalf("ReadFileWithLimit() error: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("data = %q", data)
	}

	big := filepath.Join(dir, "big")
	if err := os.WriteFile(big, make([]byte, MaxFileSize+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFileWithLimit(big); err == nil {
		t.Error("expected error for oversized file")
	}
}
