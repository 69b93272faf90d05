// Package bootstrap wires adapters and use cases from a Config.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/0xcro3dile/ledgerchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/ledgerchat-go/internal/adapters/ledgerdb"
	"github.com/0xcro3dile/ledgerchat-go/internal/adapters/loader"
	"github.com/0xcro3dile/ledgerchat-go/internal/adapters/session"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/usecases"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/config"
)

// App holds every wired component.
type App struct {
	Config   *config.Config
	Log      ports.Logger
	Ledger   ports.LedgerStore
	Loader   *loader.CSVLoader
	Sessions *session.CacheStore
	Ingest   *usecases.IngestUseCase
	Query    *usecases.QueryUseCase
	Chat     *usecases.ChatUseCase

	closers []io.Closer
}

// New builds the ledger store, loads the CSV and wires the use cases.
// With the sqlite backend a failed load falls back to the rows already
// persisted; the memory backend has nothing to fall back to.
func New(ctx context.Context, cfg *config.Config, log ports.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Log:    log,
		Loader: loader.NewCSVLoader(),
	}

	switch cfg.Ledger.Backend {
	case config.BackendSQLite:
		store, err := ledgerdb.NewSQLiteLedger(cfg.Ledger.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		app.Ledger = store
		app.closers = append(app.closers, store)
	default:
		app.Ledger = ledgerdb.NewInMemoryLedger()
	}

	app.Ingest = usecases.NewIngestUseCase(app.Loader, app.Ledger, log)
	if _, err := app.Ingest.Ingest(ctx, cfg.Ledger.CSVPath); err != nil {
		count, cerr := app.Ledger.Count(ctx)
		if cerr != nil || count == 0 {
			app.Close()
			return nil, err
		}
		log.Warn("bootstrap", "initial load failed, serving persisted ledger", map[string]interface{}{
			"error":   err.Error(),
			"records": count,
		})
	}

	resolver := usecases.NewResolver(app.Ledger, cfg.Match.FieldAliases, cfg.Match.CompanyCutoff, cfg.Match.FieldCutoff)
	app.Query = usecases.NewQueryUseCase(app.Ledger, resolver, log)
	app.Sessions = session.NewCacheStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
	app.Chat = usecases.NewChatUseCase(app.Query, app.Sessions, log)

	log.Info("bootstrap", "ledger ready", map[string]interface{}{
		"backend": cfg.Ledger.Backend,
		"path":    cfg.Ledger.CSVPath,
	})
	return app, nil
}

// Watch reloads the ledger whenever its CSV changes. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	watcher, err := filewatcher.NewFSNotifyWatcher(a.Loader.SupportedExtensions(), a.Log)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Stop()

	return a.Ingest.Watch(ctx, watcher, a.Config.Ledger.CSVPath)
}

// Close releases the ledger store.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
