package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/canvasship/internal/domain"
	"github.com/bft-labs/canvasship/pkg/log"
)

// LoadDocument reads and parses a surface document.
func LoadDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read document: %w", err)
	}
	return domain.ParseDocument(data)
}

// DocumentWatcher implements ports.DocumentSource for a JSON file. It
// watches the parent directory so editors that replace the file by rename
// are followed.
type DocumentWatcher struct {
	path   string
	logger log.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu   sync.Mutex
	last []byte
}

// NewDocumentWatcher creates a watcher for path.
func NewDocumentWatcher(path string, logger log.Logger) *DocumentWatcher {
	return &DocumentWatcher{
		path:   filepath.Clean(path),
		logger: log.OrNoop(logger),
		ready:  make(chan struct{}),
	}
}

// Load reads the document once.
func (w *DocumentWatcher) Load(ctx context.Context) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	return LoadDocument(w.path)
}

// Path returns the watched file path.
func (w *DocumentWatcher) Path() string { return w.path }

// Ready is closed once the directory watch is established and the initial
// document has been delivered.
func (w *DocumentWatcher) Ready() <-chan struct{} { return w.ready }

// Watch delivers the current document, then every changed revision, to fn
// until ctx is cancelled. A missing file is not an error; the document is
// picked up when it appears.
func (w *DocumentWatcher) Watch(ctx context.Context, fn func(domain.Document, time.Time)) error {
	defer w.markReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.reload(fn)
	w.markReady()
	w.logger.Info("watching surface document", log.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload(fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("document watcher error", log.Err(err))
		}
	}
}

func (w *DocumentWatcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// reload parses the file and calls the handler when its content changed.
// Unreadable or half-written files are skipped; the next write retries.
func (w *DocumentWatcher) reload(fn func(domain.Document, time.Time)) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("read surface document", log.String("path", w.path), log.Err(err))
		}
		return
	}

	w.mu.Lock()
	unchanged := w.last != nil && bytes.Equal(w.last, data)
	w.mu.Unlock()
	if unchanged {
		return
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		w.logger.Debug("skipping unparsable document", log.String("path", w.path), log.Err(err))
		return
	}

	w.mu.Lock()
	w.last = data
	w.mu.Unlock()

	w.logger.Debug("surface document loaded",
		log.String("path", w.path),
		log.Int("strokes", len(doc.Strokes)),
	)
	fn(doc, time.Now())
}
