package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher redeploys artifact files in a directory when they are written.
// Removing a file keeps the last deployed model in service.
type Watcher struct {
	registry *Registry
	dir      string
	debounce time.Duration
}

func NewWatcher(registry *Registry, dir string) *Watcher {
	return &Watcher{registry: registry, dir: dir, debounce: defaultDebounce}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.WithField("dir", w.dir).Info("watching model artifacts")

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isArtifactFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("artifact watcher error")

		case <-fire:
			fire = nil
			for path := range pending {
				w.redeploy(ctx, path)
			}
			pending = make(map[string]struct{})
		}
	}
}

func (w *Watcher) redeploy(ctx context.Context, path string) {
	a, err := LoadFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("reload artifact failed")
		return
	}
	if err := w.registry.Deploy(ctx, a); err != nil {
		log.WithError(err).WithField("path", path).Error("redeploy artifact failed")
	}
}
