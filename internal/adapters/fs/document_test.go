package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/canvasship/internal/domain"
)

const sampleDoc = `{"strokes":[{"points":[{"x":10,"y":20},{"x":30,"y":40}]}]}`

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if len(doc.Strokes) != 1 || len(doc.Strokes[0].Points) != 2 {
		t.Errorf("LoadDocument() = %+v", doc)
	}

	if _, err := LoadDocument(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o600)
	if _, err := LoadDocument(bad); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("bad file error = %v, want ErrInvalidDocument", err)
	}
}

type docEvent struct {
	doc domain.Document
	at  time.Time
}

func startWatcher(t *testing.T, path string) (*DocumentWatcher, chan docEvent) {
	t.Helper()
	events := make(chan docEvent, 16)
	w := NewDocumentWatcher(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Watch(ctx, func(doc domain.Document, at time.Time) {
			events <- docEvent{doc, at}
		})
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	return w, events
}

func waitDoc(t *testing.T, events chan docEvent) domain.Document {
	t.Helper()
	select {
	case ev := <-events:
		return ev.doc
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for document")
		return domain.Document{}
	}
}

func TestDocumentWatcher_InitialAndUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	_, events := startWatcher(t, path)

	if doc := waitDoc(t, events); len(doc.Strokes) != 1 {
		t.Fatalf("initial strokes = %d, want 1", len(doc.Strokes))
	}

	two := `{"strokes":[{"points":[{"x":1,"y":1}]},{"points":[{"x":2,"y":2}]}]}`
	if err := os.WriteFile(path, []byte(two), 0o600); err != nil {
		t.Fatal(err)
	}
	if doc := waitDoc(t, events); len(doc.Strokes) != 2 {
		t.Errorf("updated strokes = %d, want 2", len(doc.Strokes))
	}
}

func TestDocumentWatcher_FileCreatedLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.json")

	_, events := startWatcher(t, path)

	// Unrelated files are ignored.
	os.WriteFile(filepath.Join(dir, "other.json"), []byte(sampleDoc), 0o600)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if doc := waitDoc(t, events); len(doc.Strokes) != 1 {
		t.Errorf("strokes = %d, want 1", len(doc.Strokes))
	}
}

func TestDocumentWatcher_SkipsInvalidAndUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	os.WriteFile(path, []byte(sampleDoc), 0o600)

	_, events := startWatcher(t, path)
	waitDoc(t, events)

	os.WriteFile(path, []byte(`{"strokes":[`), 0o600)
	os.WriteFile(path, []byte(sampleDoc), 0o600)

	select {
	case ev := <-events:
		t.Fatalf("unexpected reload: %+v", ev.doc)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDocumentWatcher_MissingDirectory(t *testing.T) {
	w := NewDocumentWatcher(filepath.Join(t.TempDir(), "nope", "canvas.json"), nil)
	if err := w.Watch(context.Background(), func(domain.Document, time.Time) {}); err == nil {
		t.Error("Watch() expected error for missing directory")
	}
	select {
	case <-w.Ready():
	default:
		t.Error("Ready() not closed after Watch returned")
	}
	if _, err := w.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}
