package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

func TestFSNotifyWatcher_Creation(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{".csv", ".TSV"}, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.extensions[1] != ".tsv" {
		t.Errorf("extensions should be lower-cased, got %v", watcher.extensions)
	}
}

func TestFSNotifyWatcher_DefaultExtensions(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	if len(watcher.extensions) != 1 || watcher.extensions[0] != ".csv" {
		t.Errorf("expected [.csv] default, got %v", watcher.extensions)
	}
}

func TestFSNotifyWatcher_WatchDirectory(t *testing.T) {
	dir, _ := os.MkdirTemp("", "watcher-test-*")
	defer os.RemoveAll(dir)

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()
	watcher.SetSettle(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "ledger.csv"), []byte("Company,Fiscal Year\n"), 0644)
	}()

	select {
	case event := <-events:
		if event.Operation != ports.FileCreated {
			t.Errorf("expected create event, got %v", event.Operation)
		}
		if filepath.Base(event.Path) != "ledger.csv" {
			t.Errorf("unexpected path %s", event.Path)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_FiltersByExtension(t *testing.T) {
	dir, _ := os.MkdirTemp("", "watcher-test-*")
	defer os.RemoveAll(dir)

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()
	watcher.SetSettle(0)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	events, _ := watcher.Watch(ctx, dir)

	os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644)

	select {
	case <-events:
		t.Error("should not receive event for .json")
	case <-time.After(300 * time.Millisecond):
		// Expected - no event
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	err := watcher.Stop()
	if err != nil {
		t.Errorf("stop failed: %v", err)
	}
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		op   fsnotify.Op
		want ports.FileOperation
		ok   bool
	}{
		{fsnotify.Create, ports.FileCreated, true},
		{fsnotify.Write, ports.FileModified, true},
		{fsnotify.Remove, ports.FileDeleted, true},
		{fsnotify.Rename, ports.FileDeleted, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, c := range cases {
		got, ok := translate(c.op)
		if ok != c.ok || got != c.want {
			t.Errorf("translate(%v) = %v, %v; want %v, %v", c.op, got, ok, c.want, c.ok)
		}
	}
}

func TestMerge_CreateThenWriteStaysCreate(t *testing.T) {
	pending := map[string]ports.FileOperation{"a.csv": ports.FileCreated}

	if got := merge(pending, "a.csv", ports.FileModified); got != ports.FileCreated {
		t.Errorf("expected create, got %v", got)
	}
	if got := merge(pending, "a.csv", ports.FileDeleted); got != ports.FileDeleted {
		t.Errorf("expected delete, got %v", got)
	}
	if got := merge(pending, "b.csv", ports.FileModified); got != ports.FileModified {
		t.Errorf("expected modify, got %v", got)
	}
}
