package session

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/config"
)

// Watcher keeps a long running gate in step with logins and logouts done
// by other worldctl processes on the same profile.
type Watcher struct {
	gate     *Gate
	store    ProfileStore
	debounce time.Duration
	logger   *zap.SugaredLogger

	stopOnce sync.Once
}

func NewWatcher(g *Gate, s ProfileStore, debounce time.Duration, logger *zap.SugaredLogger) *Watcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{gate: g, store: s, debounce: debounce, logger: logger}
}

// Start begins watching the configuration directory. Returns stop function.
func (w *Watcher) Start(ctx context.Context) (func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)

	changes := make(chan struct{}, 1)
	go func() {
		defer fw.Close()
		for {
			select {
			case ev := <-fw.Events:
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err := <-fw.Errors:
				if err != nil {
					w.logger.Warnw("fsnotify error", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		var timer <-chan time.Time
		for {
			select {
			case <-changes:
				timer = time.After(w.debounce)
			case <-timer:
				timer = nil
				w.sync()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { w.stopOnce.Do(cancel) }, nil
}

func (w *Watcher) sync() {
	stored, ok, err := w.store.Load()
	if err != nil {
		w.logger.Warnw("reload profile failed", "err", err)
		return
	}
	cur, _ := w.gate.Current()
	switch {
	case !ok && cur.Token != "":
		w.logger.Infow("signed out by another process")
		w.gate.clear("profile")
	case ok && stored.Token != cur.Token:
		w.logger.Infow("session changed by another process", "user", stored.Name)
		w.gate.Adopt(stored)
	}
}
