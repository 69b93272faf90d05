package ledgerdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// SQLiteLedger implements ports.LedgerStore with SQLite persistence.
// Values are stored as decimal strings so no precision is lost.
type SQLiteLedger struct {
	mu       sync.RWMutex
	db       *sql.DB
	dataPath string
}

// NewSQLiteLedger opens (or creates) ledger.db under dataPath.
func NewSQLiteLedger(dataPath string) (*SQLiteLedger, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "ledger.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteLedger{
		db:       db,
		dataPath: dataPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company TEXT NOT NULL,
		company_key TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		loaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_company_year ON records(company_key, fiscal_year);
	CREATE TABLE IF NOT EXISTS record_values (
		record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (record_id, field)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Replace swaps the whole table for records inside one transaction.
func (s *SQLiteLedger) Replace(ctx context.Context, records []entities.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM record_values"); err != nil {
		return fmt.Errorf("clearing values: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (company, company_key, fiscal_year)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer recStmt.Close()

	valStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO record_values (record_id, field, value)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer valStmt.Close()

	for _, rec := range records {
		res, err := recStmt.ExecContext(ctx, rec.Company, strings.ToLower(rec.Company), rec.FiscalYear)
		if err != nil {
			return fmt.Errorf("inserting %s %d: %w", rec.Company, rec.FiscalYear, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading record id: %w", err)
		}
		for field, v := range rec.Values {
			if _, err := valStmt.ExecContext(ctx, id, field, v.String()); err != nil {
				return fmt.Errorf("inserting %s for %s %d: %w", field, rec.Company, rec.FiscalYear, err)
			}
		}
	}

	return tx.Commit()
}

// DistinctCompanies returns company names in ascending order.
func (s *SQLiteLedger) DistinctCompanies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT company FROM records")
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// byte order, matching the in-memory store rather than SQLite collation
	sort.Strings(names)
	return names, nil
}

// Lookup finds the record for company and year; nil when absent.
func (s *SQLiteLedger) Lookup(ctx context.Context, company string, year int) (*entities.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		id  int64
		rec = entities.Record{FiscalYear: year, Values: map[string]decimal.Decimal{}}
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company FROM records
		WHERE company_key = ? AND fiscal_year = ?
	`, strings.ToLower(company), year).Scan(&id, &rec.Company)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT field, value FROM record_values WHERE record_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var field, raw string
		if err := rows.Scan(&field, &raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			continue // Skip corrupted values
		}
		rec.Values[field] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// YearsFor lists the company's fiscal years, ascending.
func (s *SQLiteLedger) YearsFor(ctx context.Context, company string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT fiscal_year FROM records
		WHERE company_key = ?
		ORDER BY fiscal_year
	`, strings.ToLower(company))
	if err != nil {
		return nil, fmt.Errorf("querying years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteLedger) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
