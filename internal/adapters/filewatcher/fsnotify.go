// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

// DefaultSettle is how long a path must stay quiet before its event is
// emitted. Spreadsheet exports write a CSV in several chunks.
const DefaultSettle = 250 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // lower-cased, e.g. ".csv"
	settle     time.Duration
	log        ports.Logger
}

// NewFSNotifyWatcher creates a new file watcher. log may be nil.
func NewFSNotifyWatcher(extensions []string, log ports.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".csv"}
	}
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(e)
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: exts,
		settle:     DefaultSettle,
		log:        log,
	}, nil
}

// SetSettle overrides the quiet period; zero emits every event immediately.
func (w *FSNotifyWatcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Watch starts monitoring the directory and emits events. Bursts on the same
// path collapse into one event carrying the last operation seen.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)

		pending := make(map[string]ports.FileOperation)
		var deadline <-chan time.Time

		flush := func() bool {
			for path, op := range pending {
				select {
				case events <- ports.FileEvent{Path: path, Operation: op}:
				case <-ctx.Done():
					return false
				}
				delete(pending, path)
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline:
				deadline = nil
				if !flush() {
					return
				}
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				op, ok := translate(event.Op)
				if !ok {
					continue
				}
				pending[event.Name] = merge(pending, event.Name, op)

				if w.settle <= 0 {
					if !flush() {
						return
					}
					continue
				}
				deadline = time.After(w.settle)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				if w.log != nil {
					w.log.Error("watcher", "fsnotify error", map[string]interface{}{
						"dir":   dir,
						"error": err.Error(),
					})
				}
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// translate maps an fsnotify op onto a FileOperation. Renaming the file away
// counts as a delete.
func translate(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	}
	return 0, false
}

// merge keeps a create followed by writes reported as a create.
func merge(pending map[string]ports.FileOperation, path string, op ports.FileOperation) ports.FileOperation {
	prev, ok := pending[path]
	if ok && prev == ports.FileCreated && op == ports.FileModified {
		return ports.FileCreated
	}
	return op
}
