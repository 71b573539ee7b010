package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a collection must stay quiet before a rebuild
// is signalled.
const DefaultDebounce = 2 * time.Second

// Watcher signals when the HTML files of a collection change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     map[string]string
	order    []string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches root/<name> for every collection. A debounce of zero
// uses DefaultDebounce.
func NewWatcher(root string, collections []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		dirs:     make(map[string]string, len(collections)),
		order:    collections,
		debounce: debounce,
		logger:   logger,
	}
	for _, name := range collections {
		dir := filepath.Clean(filepath.Join(root, name))
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = name
	}
	return w, nil
}

// Run emits the names of changed collections until ctx is done, then closes
// the channel and the underlying watcher. Events arriving within the
// debounce window are coalesced; names are emitted in collection order.
func (w *Watcher) Run(ctx context.Context) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)
		defer w.watcher.Close()

		timer := time.NewTimer(w.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		pending := map[string]bool{}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				name, relevant := w.collectionFor(event)
				if !relevant {
					continue
				}
				w.logger.Debug("corpus change", "collection", name, "file", event.Name, "op", event.Op.String())
				pending[name] = true
				timer.Reset(w.debounce)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("corpus watcher error", "error", err)

			case <-timer.C:
				for _, name := range w.order {
					if !pending[name] {
						continue
					}
					select {
					case out <- name:
					case <-ctx.Done():
						return
					}
				}
				pending = map[string]bool{}
			}
		}
	}()

	return out
}

func (w *Watcher) collectionFor(event fsnotify.Event) (string, bool) {
	if filepath.Ext(event.Name) != ".html" {
		return "", false
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return "", false
	}
	name, ok := w.dirs[filepath.Clean(filepath.Dir(event.Name))]
	return name, ok
}
