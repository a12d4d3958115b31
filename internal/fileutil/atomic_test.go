package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomicCreatesParentsAndReplaces(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "out.gz")
	for _, body := range []string{"first", "second"} {
		err := WriteAtomic(dest, 0o644, func(w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		})
		if err != nil {
			t.Fatalf("WriteAtomic: %v", err)
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != body {
			t.Fatalf("content mismatch: got %q, want %q", got, body)
		}
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("unexpected mode: %v", info.Mode().Perm())
	}
}

func TestWriteAtomicLeavesDestinationOnFailure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.br")
	if err := os.WriteFile(dest, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := WriteAtomic(dest, 0o644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "keep" {
		t.Fatalf("destination changed: %q", got)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, TempPattern(dest)))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}
