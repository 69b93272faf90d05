// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// Ledger is the read side of the financial table.
type Ledger interface {
	// DistinctCompanies returns canonical company spellings, sorted ascending.
	DistinctCompanies(ctx context.Context) ([]string, error)

	// Lookup finds the record for a company (case-insensitive) and fiscal year.
	// It returns nil, nil when no such record exists.
	Lookup(ctx context.Context, company string, year int) (*entities.Record, error)

	// YearsFor lists the fiscal years with data for a company, ascending.
	YearsFor(ctx context.Context, company string) ([]int, error)
}

// LedgerStore is a Ledger whose contents can be swapped by ingestion.
type LedgerStore interface {
	Ledger

	// Replace atomically swaps the whole table for the given records.
	Replace(ctx context.Context, records []entities.Record) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// LedgerLoader reads financial records from a source file.
type LedgerLoader interface {
	// Load parses every record in the file at path.
	Load(ctx context.Context, path string) ([]entities.Record, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// SessionStore keeps one Conversation per chat session.
type SessionStore interface {
	Get(sessionID string) (*entities.Conversation, bool)
	Save(conv *entities.Conversation)
	Delete(sessionID string)
}

// Logger is the structured logger used across layers.
type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

// String returns a log-friendly name for the operation.
func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
