// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no knowledge of storage or transport.
package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field is a canonical financial metric name.
type Field string

const (
	CashFlow         Field = "Cash Flow"
	NetIncome        Field = "Net Income"
	TotalRevenue     Field = "Total Revenue"
	TotalAssets      Field = "Total Assets"
	TotalLiabilities Field = "Total Liabilities"

	// NoField marks an empty field slot.
	NoField Field = ""
)

// CanonicalFields returns the closed set of metrics the resolver understands.
func CanonicalFields() []Field {
	return []Field{CashFlow, NetIncome, TotalRevenue, TotalAssets, TotalLiabilities}
}

// ParseField maps an exact canonical name to its Field.
func ParseField(name string) (Field, bool) {
	for _, f := range CanonicalFields() {
		if string(f) == name {
			return f, true
		}
	}
	return NoField, false
}

// FieldAlias maps one user-facing phrase to a canonical field.
type FieldAlias struct {
	Alias string
	Field Field
}

// DefaultFieldAliases returns the built-in alias table.
// Order matters: the resolver takes the first alias found in the utterance,
// so "ni" shadows every later alias in any text that contains those two letters.
func DefaultFieldAliases() []FieldAlias {
	return []FieldAlias{
		{Alias: "cash flow", Field: CashFlow},
		{Alias: "cf", Field: CashFlow},
		{Alias: "cashflow", Field: CashFlow},
		{Alias: "net income", Field: NetIncome},
		{Alias: "ni", Field: NetIncome},
		{Alias: "total revenue", Field: TotalRevenue},
		{Alias: "revenue", Field: TotalRevenue},
		{Alias: "total assets", Field: TotalAssets},
		{Alias: "assets", Field: TotalAssets},
		{Alias: "total liabilities", Field: TotalLiabilities},
		{Alias: "liabilities", Field: TotalLiabilities},
		{Alias: "debts", Field: TotalLiabilities},
		{Alias: "profit", Field: NetIncome},
		{Alias: "income", Field: NetIncome},
	}
}

// ComparisonKeywords returns the phrases that ask for a change over time.
func ComparisonKeywords() []string {
	return []string{
		"gone up", "increased", "decreased", "increase",
		"decrease", "improved", "worsened",
	}
}

// Record is one ledger row: a company's figures for one fiscal year.
// Records are immutable once loaded.
type Record struct {
	Company    string
	FiscalYear int
	Values     map[string]decimal.Decimal // column name -> value
}

// Value returns the figure stored for a field.
func (r *Record) Value(field Field) (decimal.Decimal, bool) {
	v, ok := r.Values[string(field)]
	return v, ok
}

// Conversation is the carry-over memory of one chat session.
// Each slot is replaced wholesale whenever its resolver succeeds and is
// left untouched otherwise.
type Conversation struct {
	ID        string
	Companies []string // discovery order within the turn that set them
	Years     []int    // order of appearance in the utterance
	Field     Field
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation creates an empty memory for a session.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Clone returns a deep copy of c.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Companies = append([]string(nil), c.Companies...)
	cp.Years = append([]int(nil), c.Years...)
	return &cp
}

// CompanyResolution is the company resolver output for one turn.
type CompanyResolution struct {
	Companies []string
	Found     bool // resolved from this utterance rather than memory
}

// YearResolution is the year resolver output for one turn.
type YearResolution struct {
	Years []int
	Found bool
}

// FieldResolution is the field resolver output for one turn.
type FieldResolution struct {
	Field Field
	Found bool
}

// Intent is the response strategy picked for a turn.
type Intent string

const (
	IntentUnknown      Intent = "unknown"
	IntentCrossCompany Intent = "cross_company"
	IntentLastYear     Intent = "last_year"
	IntentTrend        Intent = "trend"
	IntentYearRange    Intent = "year_range"
	IntentPointLookup  Intent = "point_lookup"
	IntentLatestLookup Intent = "latest_lookup"
)

// ChatRequest is one utterance addressed to a session.
type ChatRequest struct {
	SessionID string
	Query     string
}

// ChatResponse is the rendered answer plus the slots used to produce it.
type ChatResponse struct {
	SessionID string
	Answer    string
	Intent    Intent
	Companies []string
	Years     []int
	Field     Field
}
