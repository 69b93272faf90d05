package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/config"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/logger"
)

const ledgerCSV = "Company,Fiscal Year,Total Revenue,Net Income\nAcme,2022,100000,20000\nAcme,2023,150000,25000\n"

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "balance_long.csv")
	require.NoError(t, os.WriteFile(path, []byte(ledgerCSV), 0644))

	return &config.Config{
		Ledger: config.LedgerConfig{
			CSVPath: path,
			Backend: backend,
			DataDir: filepath.Join(dir, "data"),
		},
		Match: config.MatchConfig{
			CompanyCutoff: 0.8,
			FieldCutoff:   0.5,
			FieldAliases:  entities.DefaultFieldAliases(),
		},
		Session: config.SessionConfig{TTL: time.Minute, CleanupInterval: time.Minute},
	}
}

func TestNew_MemoryBackend(t *testing.T) {
	app, err := New(context.Background(), testConfig(t, config.BackendMemory), logger.NewNop())
	require.NoError(t, err)
	defer app.Close()

	resp, err := app.Chat.Chat(context.Background(), &entities.ChatRequest{Query: "acme net income 2023"})
	require.NoError(t, err)
	assert.Equal(t, "Acme's Net Income in 2023 was $25,000.", resp.Answer)
}

func TestNew_SQLiteFallsBackToPersistedRows(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	ctx := context.Background()

	first, err := New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	require.NoError(t, os.Remove(cfg.Ledger.CSVPath))
	second, err := New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer second.Close()

	count, err := second.Ledger.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNew_MemoryBackendNeedsCSV(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Ledger.CSVPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(context.Background(), cfg, logger.NewNop())

	assert.Error(t, err)
}

func TestApp_WatchReloads(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	app, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Watch(ctx) }()

	time.Sleep(200 * time.Millisecond)
	updated := ledgerCSV + "Globex,2023,90000,15000\n"
	require.NoError(t, os.WriteFile(cfg.Ledger.CSVPath, []byte(updated), 0644))

	assert.Eventually(t, func() bool {
		n, _ := app.Ledger.Count(context.Background())
		return n == 3
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
