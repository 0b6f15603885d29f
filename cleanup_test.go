package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestUploadJanitor_Sweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, time.October, 31, 12, 0, 0, 0, time.UTC)
	files := map[string]time.Time{
		"stale.xlsx":   now.Add(-2 * time.Hour),
		"expired.xls":  now.Add(-time.Hour),
		"fresh.xlsx":   now.Add(-time.Minute),
		"in-work.xlsx": now,
	}
	for name, modTime := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	janitor := NewUploadJanitor(&ServerConfig{UploadDir: dir, MaxFileAge: time.Hour, CleanupInterval: time.Hour}, zerolog.Nop())
	janitor.now = func() time.Time { return now }

	removed, err := janitor.Sweep()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if removed != 2 {
		t.Errorf("removed = %d, expected 2", removed)
	}
	var left []string
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		left = append(left, entry.Name())
	}
	// ReadDir sorts by name.
	expected := []string{"fresh.xlsx", "in-work.xlsx", "nested"}
	if len(left) != len(expected) {
		t.Fatalf("left %v, expected %v", left, expected)
	}
	for i := range expected {
		assertStringEqual(t, left[i], expected[i])
	}
}

func TestUploadJanitor_SweepMissingDir(t *testing.T) {
	janitor := NewUploadJanitor(&ServerConfig{UploadDir: filepath.Join(t.TempDir(), "absent"), MaxFileAge: time.Hour}, zerolog.Nop())

	removed, err := janitor.Sweep()
	if err != nil || removed != 0 {
		t.Errorf("Sweep() = %d, %v, expected 0, nil", removed, err)
	}
}

func TestUploadJanitor_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.xlsx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	janitor := NewUploadJanitor(&ServerConfig{UploadDir: dir, MaxFileAge: time.Minute, CleanupInterval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stale upload was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run didn't stop after cancel")
	}
}
