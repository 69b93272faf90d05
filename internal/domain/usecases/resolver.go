// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/matching"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

const (
	// DefaultCompanyCutoff only repairs small typos in short company names.
	DefaultCompanyCutoff = 0.8
	// DefaultFieldCutoff is applied to the whole utterance against alias keys.
	DefaultFieldCutoff = 0.5
)

var (
	yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`) // Unicode word runs
)

// Resolver extracts companies, years and a metric field from one utterance.
// Every successful extraction overwrites the matching Conversation slot.
type Resolver struct {
	ledger        ports.Ledger
	aliases       []entities.FieldAlias
	aliasKeys     []string
	companyCutoff float64
	fieldCutoff   float64
}

// NewResolver creates a Resolver. Nil aliases select the default table and
// cutoffs outside (0,1] fall back to the defaults.
func NewResolver(ledger ports.Ledger, aliases []entities.FieldAlias, companyCutoff, fieldCutoff float64) *Resolver {
	if len(aliases) == 0 {
		aliases = entities.DefaultFieldAliases()
	}
	if companyCutoff <= 0 || companyCutoff > 1 {
		companyCutoff = DefaultCompanyCutoff
	}
	if fieldCutoff <= 0 || fieldCutoff > 1 {
		fieldCutoff = DefaultFieldCutoff
	}

	keys := make([]string, len(aliases))
	for i, a := range aliases {
		keys[i] = a.Alias
	}
	return &Resolver{
		ledger:        ledger,
		aliases:       aliases,
		aliasKeys:     keys,
		companyCutoff: companyCutoff,
		fieldCutoff:   fieldCutoff,
	}
}

// Companies resolves company names: exact substring first, then a
// per-word fuzzy match, then memory.
func (r *Resolver) Companies(ctx context.Context, conv *entities.Conversation, utterance string) (entities.CompanyResolution, error) {
	names, err := r.ledger.DistinctCompanies(ctx)
	if err != nil {
		return entities.CompanyResolution{}, fmt.Errorf("listing companies: %w", err)
	}
	q := strings.ToLower(utterance)

	var found []string
	for _, name := range names {
		if strings.Contains(q, strings.ToLower(name)) {
			found = append(found, name)
		}
	}

	if len(found) == 0 {
		lowered := make([]string, len(names))
		canonical := make(map[string]string, len(names))
		for i, name := range names {
			lowered[i] = strings.ToLower(name)
			if _, ok := canonical[lowered[i]]; !ok {
				canonical[lowered[i]] = name
			}
		}

		seen := make(map[string]bool)
		for _, w := range wordPattern.FindAllString(q, -1) {
			match, ok := matching.CloseMatch(w, lowered, r.companyCutoff)
			if !ok {
				continue
			}
			name := canonical[match]
			if !seen[name] {
				seen[name] = true
				found = append(found, name)
			}
		}
	}

	if len(found) > 0 {
		conv.Companies = append([]string(nil), found...)
		return entities.CompanyResolution{Companies: found, Found: true}, nil
	}
	return entities.CompanyResolution{Companies: append([]string(nil), conv.Companies...)}, nil
}

// Years extracts every 20xx year in order of appearance.
func (r *Resolver) Years(conv *entities.Conversation, utterance string) entities.YearResolution {
	matches := yearPattern.FindAllStringSubmatch(utterance, -1)
	if len(matches) == 0 {
		return entities.YearResolution{Years: append([]int(nil), conv.Years...)}
	}

	years := make([]int, 0, len(matches))
	for _, m := range matches {
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	conv.Years = append([]int(nil), years...)
	return entities.YearResolution{Years: years, Found: true}
}

// Field maps the utterance to a canonical field. The alias table is scanned
// in order and the first alias contained in the utterance wins.
func (r *Resolver) Field(conv *entities.Conversation, utterance string) entities.FieldResolution {
	q := strings.ToLower(utterance)

	for _, a := range r.aliases {
		if strings.Contains(q, a.Alias) {
			conv.Field = a.Field
			return entities.FieldResolution{Field: a.Field, Found: true}
		}
	}

	if match, ok := matching.CloseMatch(q, r.aliasKeys, r.fieldCutoff); ok {
		for _, a := range r.aliases {
			if a.Alias == match {
				conv.Field = a.Field
				return entities.FieldResolution{Field: a.Field, Found: true}
			}
		}
	}

	return entities.FieldResolution{Field: conv.Field}
}

// HasComparisonKeyword reports whether the utterance asks for a change over time.
func HasComparisonKeyword(utterance string) bool {
	q := strings.ToLower(utterance)
	for _, kw := range entities.ComparisonKeywords() {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
