package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 2 * time.Second

// ReloadFunc is called once per burst of changes.
type ReloadFunc func(ctx context.Context, reason string) error

// Watcher triggers a reload when any of the named artifacts in dir changes.
// The directory is watched rather than the files so atomic replacements
// (write temp, rename) are seen.
type Watcher struct {
	dir      string
	names    map[string]struct{}
	debounce time.Duration
	reload   ReloadFunc
	logger   *slog.Logger
}

func New(dir string, names []string, debounce time.Duration, reload ReloadFunc, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[filepath.Base(n)] = struct{}{}
		}
	}
	return &Watcher{dir: dir, names: set, debounce: debounce, reload: reload, logger: logger}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("artifact_watch_started", "dir", w.dir, "debounce", w.debounce.String())

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			changed[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("artifact_watch_error", "error", err)
		case <-fire:
			fire = nil
			reason := "watch:" + strings.Join(sortedNames(changed), ",")
			clear(changed)
			if err := w.reload(ctx, reason); err != nil {
				w.logger.Warn("artifact_watch_reload_failed", "reason", reason, "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	name := filepath.Base(event.Name)
	_, ok := w.names[name]
	return name, ok
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
