package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"markerq/internal/config"
	"markerq/internal/logging"
	"markerq/internal/services"
)

// Watcher monitors a drop folder and hands settled PDF files to a handler.
// A file counts as settled once no writes have arrived for the configured
// settle interval, so partially copied documents are not enqueued.
type Watcher struct {
	dir    string
	settle time.Duration
	logger *slog.Logger
	handle func(path string)
}

// NewWatcher constructs a drop-folder watcher. The handler runs on the
// watcher goroutine and must not block for long.
func NewWatcher(cfg *config.Config, logger *slog.Logger, handle func(path string)) *Watcher {
	settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		dir:    cfg.Watch.Dir,
		settle: settle,
		logger: logging.NewComponentLogger(logger, "watcher"),
		handle: handle,
	}
}

// Run watches the drop folder until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if strings.TrimSpace(w.dir) == "" {
		return services.Wrap(services.ErrConfiguration, "watch", "resolve dir", "watch directory not configured", nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "watch", "create watcher", "cannot create filesystem watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return services.Wrap(services.ErrFilesystem, "watch", "watch dir", "cannot watch drop folder", err)
	}
	w.logger.Info("watching drop folder",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.settle),
	)

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, timer := range timers {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			w.armSettleTimer(ctx, &mu, timers, event.Name)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(watchErr))
		}
	}
}

func (w *Watcher) armSettleTimer(ctx context.Context, mu *sync.Mutex, timers map[string]*time.Timer, path string) {
	mu.Lock()
	defer mu.Unlock()

	if timer, ok := timers[path]; ok {
		timer.Reset(w.settle)
		return
	}
	timers[path] = time.AfterFunc(w.settle, func() {
		mu.Lock()
		delete(timers, path)
		mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("drop folder file settled", logging.String("path", path))
		if w.handle != nil {
			w.handle(path)
		}
	})
}
