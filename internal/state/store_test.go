package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMissingReturnsEmpty(t *testing.T) {
	s := New(t.TempDir())
	got, err := s.Read("sess-1", KeyTodo)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestWriteThenRead(t *testing.T) {
	s := New(t.TempDir())
	want := map[string]any{"total": float64(3), "completed": float64(2)}
	if err := s.Write("sess-1", KeyTodo, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("sess-1", KeyTodo)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got["total"] != want["total"] || got["completed"] != want["completed"] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReadCorruptJSONSelfHeals(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := s.dataPath("sess-1", KeyRetry)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	got, err := s.Read("sess-1", KeyRetry)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map from corrupt file, got %v", got)
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Read("sess-1", Key("bogus")); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := s.Write("sess-1", Key("bogus"), map[string]any{}); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestQuotaKeyIsSessionIndependent(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Write("sess-a", KeyQuota, map[string]any{"gemini": "exhausted"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("sess-b", KeyQuota)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got["gemini"] != "exhausted" {
		t.Fatalf("expected quota state shared across sessions, got %v", got)
	}
}

func TestMutateIsReadModifyWrite(t *testing.T) {
	s := New(t.TempDir())
	bump := func(rec map[string]any) map[string]any {
		count, _ := rec["count"].(float64)
		rec["count"] = count + 1
		return rec
	}
	for i := 0; i < 3; i++ {
		if err := s.Mutate("sess-1", KeyRetry, bump); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}
	got, err := s.Read("sess-1", KeyRetry)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got["count"] != float64(3) {
		t.Fatalf("expected count 3, got %v", got["count"])
	}
}

func TestCleanupRemovesSessionScopedFiles(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []Key{KeyRetry, KeyDebounce, KeyOverride, KeyTodo} {
		if err := s.Write("sess-1", key, map[string]any{"x": true}); err != nil {
			t.Fatalf("Write %s: %v", key, err)
		}
	}
	if err := s.Write("sess-1", KeyQuota, map[string]any{"gemini": "available"}); err != nil {
		t.Fatalf("Write quota: %v", err)
	}
	if err := s.Cleanup("sess-1"); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, key := range []Key{KeyRetry, KeyDebounce, KeyOverride, KeyTodo} {
		got, err := s.Read("sess-1", key)
		if err != nil {
			t.Fatalf("Read %s after cleanup: %v", key, err)
		}
		if len(got) != 0 {
			t.Fatalf("expected %s cleaned up, got %v", key, got)
		}
	}
	got, err := s.Read("sess-1", KeyQuota)
	if err != nil {
		t.Fatalf("Read quota after cleanup: %v", err)
	}
	if got["gemini"] != "available" {
		t.Fatalf("expected quota state untouched by Cleanup, got %v", got)
	}
}
