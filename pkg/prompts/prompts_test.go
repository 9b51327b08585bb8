// Tests for prompt file parsing.
package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestParseDropsBlankLines verifies trimming and order preservation.
func TestParseDropsBlankLines(t *testing.T) {
	got := Parse("  first \n\n\t\nsecond\r\nfirst\n   \nthird")
	want := []string{"first", "second", "first", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(" \n\t\n"); len(got) != 0 {
		t.Fatalf("expected no prompts, got %q", got)
	}
}

// TestLoadFile reads prompts from disk.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	if err := os.WriteFile(path, []byte("hello\n\nworld\n"), 0o644); err != nil {
		t.Fatalf("write messages.txt: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Fatalf("unexpected prompts: %q", got)
	}
}

func TestLoadFileWhitespaceOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	if err := os.WriteFile(path, []byte("   \n\n\t\n"), 0o644); err != nil {
		t.Fatalf("write messages.txt: %v", err)
	}

	_, err := LoadFile(path)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
