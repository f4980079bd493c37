package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWatchedArtifactOnly(t *testing.T) {
	dir := t.TempDir()
	reasons := make(chan string, 16)
	w := New(dir, []string{"pages.json"}, 50*time.Millisecond, func(_ context.Context, reason string) error {
		reasons <- reason
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case reason := <-reasons:
			if reason != "watch:pages.json" {
				t.Fatalf("unexpected reason %q", reason)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			return
		case <-tick.C:
			// the watcher may not be registered yet; keep touching both files
			if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
				t.Fatalf("write other: %v", err)
			}
			if err := os.WriteFile(filepath.Join(dir, "pages.json"), []byte("[]"), 0o644); err != nil {
				t.Fatalf("write pages: %v", err)
			}
		case <-deadline:
			t.Fatalf("no reload observed")
		}
	}
}

func TestWatcherFailsOnMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), []string{"pages.json"}, 0, func(context.Context, string) error { return nil }, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
