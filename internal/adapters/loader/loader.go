// Package loader provides ledger loading adapters.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// Required header columns. Every other column is read as a metric.
const (
	ColumnCompany    = "Company"
	ColumnFiscalYear = "Fiscal Year"
)

// ErrNoRecords is returned for a file with a header but no data rows.
var ErrNoRecords = errors.New("ledger has no records")

// CSVLoader loads a wide financial table: one row per company and fiscal
// year, one column per metric.
type CSVLoader struct{}

// NewCSVLoader creates a new CSV ledger loader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// Load reads every record from the CSV file at path, sorted by company and year.
func (l *CSVLoader) Load(ctx context.Context, path string) ([]entities.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return l.Read(ctx, file)
}

// Read parses CSV content from r.
func (l *CSVLoader) Read(ctx context.Context, r io.Reader) ([]entities.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoRecords
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	companyCol, yearCol, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	type key struct {
		company string
		year    int
	}
	seen := make(map[key]bool)
	var records []entities.Record

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		company := strings.TrimSpace(row[companyCol])
		if company == "" {
			return nil, fmt.Errorf("line %d: empty company", line)
		}
		year, ok := parseYear(row[yearCol])
		if !ok {
			return nil, fmt.Errorf("line %d: invalid fiscal year %q", line, row[yearCol])
		}

		k := key{strings.ToLower(company), year}
		if seen[k] {
			return nil, fmt.Errorf("line %d: duplicate record for %s in %d", line, company, year)
		}
		seen[k] = true

		values := make(map[string]decimal.Decimal, len(header)-2)
		for i, cell := range row {
			if i == companyCol || i == yearCol {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := decimal.NewFromString(strings.ReplaceAll(cell, ",", ""))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s value %q", line, header[i], cell)
			}
			values[header[i]] = v
		}

		records = append(records, entities.Record{
			Company:    company,
			FiscalYear: year,
			Values:     values,
		})
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Company != records[j].Company {
			return records[i].Company < records[j].Company
		}
		return records[i].FiscalYear < records[j].FiscalYear
	})
	return records, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *CSVLoader) SupportedExtensions() []string {
	return []string{".csv"}
}

// parseYear accepts whole numbers, including float spellings such as
// "2022.0" written by spreadsheet and dataframe exports.
func parseYear(cell string) (int, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(cell))
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	year := d.IntPart()
	if year < 0 || year > 9999 {
		return 0, false
	}
	return int(year), true
}

func locateColumns(header []string) (company, year int, err error) {
	company, year = -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		header[i] = name
		switch name {
		case ColumnCompany:
			company = i
		case ColumnFiscalYear:
			year = i
		}
	}
	if company < 0 || year < 0 {
		return 0, 0, fmt.Errorf("header must contain %q and %q columns", ColumnCompany, ColumnFiscalYear)
	}
	return company, year, nil
}
