// Package ledgerdb provides ledger store adapters.
// Both stores implement ports.LedgerStore and can be swapped without touching usecases.
package ledgerdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// InMemoryLedger keeps the whole table in memory, sorted by company and year.
type InMemoryLedger struct {
	mu        sync.RWMutex
	records   []entities.Record
	byKey     map[string][]int // lower-cased company -> record indexes, ascending year
	companies []string
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{byKey: make(map[string][]int)}
}

// Replace swaps the whole table for records.
func (s *InMemoryLedger) Replace(ctx context.Context, records []entities.Record) error {
	sorted := make([]entities.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Company != sorted[j].Company {
			return sorted[i].Company < sorted[j].Company
		}
		return sorted[i].FiscalYear < sorted[j].FiscalYear
	})

	byKey := make(map[string][]int)
	seen := make(map[string]bool)
	var companies []string
	for i, r := range sorted {
		key := strings.ToLower(r.Company)
		byKey[key] = append(byKey[key], i)
		if !seen[r.Company] {
			seen[r.Company] = true
			companies = append(companies, r.Company)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = sorted
	s.byKey = byKey
	s.companies = companies
	return nil
}

// DistinctCompanies returns company names in ascending order.
func (s *InMemoryLedger) DistinctCompanies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

// Lookup finds the record for company and year; nil when absent.
func (s *InMemoryLedger) Lookup(ctx context.Context, company string, year int) (*entities.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.byKey[strings.ToLower(company)] {
		if s.records[i].FiscalYear == year {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// YearsFor lists the company's fiscal years, ascending and unique.
func (s *InMemoryLedger) YearsFor(ctx context.Context, company string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byKey[strings.ToLower(company)]
	years := make([]int, 0, len(idx))
	for _, i := range idx {
		years = append(years, s.records[i].FiscalYear)
	}
	return uniqueSorted(years), nil
}

// Count returns the number of stored records.
func (s *InMemoryLedger) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// uniqueSorted sorts years and drops repeats; spellings differing only in
// case share one key and may interleave.
func uniqueSorted(years []int) []int {
	sort.Ints(years)
	out := years[:0]
	for _, y := range years {
		if len(out) == 0 || out[len(out)-1] != y {
			out = append(out, y)
		}
	}
	return out
}
