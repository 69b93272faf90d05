// Package usecases - ingest.go loads ledger files into the store.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

// ErrUnsupportedFile is returned for a path the loader cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// IngestUseCase handles loading the financial table into the ledger store.
type IngestUseCase struct {
	loader ports.LedgerLoader
	store  ports.LedgerStore
	log    ports.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(loader ports.LedgerLoader, store ports.LedgerStore, log ports.Logger) *IngestUseCase {
	if log == nil {
		log = nopLogger{}
	}
	return &IngestUseCase{
		loader: loader,
		store:  store,
		log:    log,
	}
}

// Ingest reads the file at path and replaces the store contents with it.
// On any error the store keeps its previous contents.
func (uc *IngestUseCase) Ingest(ctx context.Context, path string) (int, error) {
	if !uc.supported(path) {
		return 0, fmt.Errorf("loading %s: %w", path, ErrUnsupportedFile)
	}
	records, err := uc.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := uc.store.Replace(ctx, records); err != nil {
		return 0, fmt.Errorf("storing records: %w", err)
	}

	uc.log.Info("ingest", "ledger loaded", map[string]interface{}{
		"path":    path,
		"records": len(records),
	})
	return len(records), nil
}

// Watch re-ingests path whenever the watcher reports it created or modified.
// It blocks until ctx is done or the watcher closes its channel.
func (uc *IngestUseCase) Watch(ctx context.Context, watcher ports.FileWatcher, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	events, err := watcher.Watch(ctx, filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			evPath, err := filepath.Abs(ev.Path)
			if err != nil || evPath != target {
				continue
			}
			uc.handle(ctx, ev, target)
		}
	}
}

// supported checks the extension against the loader's list, ignoring case.
func (uc *IngestUseCase) supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range uc.loader.SupportedExtensions() {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func (uc *IngestUseCase) handle(ctx context.Context, ev ports.FileEvent, path string) {
	details := map[string]interface{}{"path": path, "op": ev.Operation.String()}

	switch ev.Operation {
	case ports.FileCreated, ports.FileModified:
		if _, err := uc.Ingest(ctx, path); err != nil {
			details["error"] = err.Error()
			uc.log.Error("ingest", "reload failed, keeping previous ledger", details)
		}
	case ports.FileDeleted:
		uc.log.Warn("ingest", "ledger file removed, keeping previous ledger", details)
	}
}
