package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

type WatchConfig struct {
	Roots       []string            // directories to watch (recursive)
	AllowedExts map[string]struct{} // nil -> constants.AllowedExtensions
	InitialScan bool                // emit files that already exist
	Debounce    time.Duration       // coalesce rapid write/rename bursts
}

// StartWatcher emits paths of new or changed matching files until ctx ends.
// Both channels are closed when the watcher stops.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = extSet(nil)
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && matches(path, cfg.AllowedExts) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		defer close(errCh)
		defer close(evCh)
		defer func() { _ = w.Close() }()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		var (
			mu      sync.Mutex
			pending = map[string]struct{}{}
			flush   = make(chan struct{}, 1)
			timer   *time.Timer
		)
		drain := func() []string {
			mu.Lock()
			defer mu.Unlock()
			out := make([]string, 0, len(pending))
			for p := range pending {
				out = append(out, p)
				delete(pending, p)
			}
			return out
		}
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				for _, p := range drain() {
					if !emit(p) {
						return
					}
				}
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// new directories are watched too; Add fails harmlessly for files
					_ = w.Add(e.Name)
				}
				if !matches(e.Name, cfg.AllowedExts) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					continue
				}
				mu.Lock()
				pending[e.Name] = struct{}{}
				mu.Unlock()

				if cfg.Debounce <= 0 {
					select {
					case flush <- struct{}{}:
					default:
					}
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.Debounce, func() {
					select {
					case flush <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func matches(path string, exts map[string]struct{}) bool {
	if IsHidden(path) {
		return false
	}
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
