// Package usecases - query.go classifies a resolved turn and renders the answer.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/format"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

// Answer is the outcome of one turn.
type Answer struct {
	Text      string
	Intent    entities.Intent
	Companies []string
	Years     []int
	Field     entities.Field
}

// QueryUseCase turns an utterance plus conversation memory into an answer.
type QueryUseCase struct {
	ledger   ports.Ledger
	resolver *Resolver
	log      ports.Logger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(ledger ports.Ledger, resolver *Resolver, log ports.Logger) *QueryUseCase {
	if resolver == nil {
		resolver = NewResolver(ledger, nil, DefaultCompanyCutoff, DefaultFieldCutoff)
	}
	if log == nil {
		log = nopLogger{}
	}
	return &QueryUseCase{
		ledger:   ledger,
		resolver: resolver,
		log:      log,
	}
}

// Resolve answers one utterance. conv is updated in place by the resolvers,
// including on turns that end up rejected as not understood.
// Errors are only returned when the ledger itself fails.
func (uc *QueryUseCase) Resolve(ctx context.Context, conv *entities.Conversation, utterance string) (*Answer, error) {
	q := strings.ToLower(utterance)

	// 1. Resolve slots against memory
	companies, err := uc.resolver.Companies(ctx, conv, q)
	if err != nil {
		return nil, err
	}
	years := uc.resolver.Years(conv, q)
	field := uc.resolver.Field(conv, q)
	hasKeyword := HasComparisonKeyword(q)
	conv.UpdatedAt = time.Now()

	ans := &Answer{
		Intent:    entities.IntentUnknown,
		Companies: companies.Companies,
		Years:     years.Years,
		Field:     field.Field,
	}

	// 2. Nothing new in this turn
	if !companies.Found && !years.Found && !field.Found && !hasKeyword {
		ans.Text = MsgNotUnderstood
		return ans, nil
	}

	// 3. Default metric for this turn only
	if !field.Found && conv.Field == entities.NoField {
		ans.Field = entities.TotalRevenue
	}

	text, intent, err := uc.dispatch(ctx, conv, q, ans, hasKeyword)
	if err != nil {
		return nil, err
	}
	ans.Text, ans.Intent = text, intent

	uc.log.Debug("query", "turn resolved", map[string]interface{}{
		"session_id": conv.ID,
		"intent":     string(intent),
		"companies":  ans.Companies,
		"years":      ans.Years,
		"field":      string(ans.Field),
	})
	return ans, nil
}

func (uc *QueryUseCase) dispatch(ctx context.Context, conv *entities.Conversation, q string, ans *Answer, hasKeyword bool) (string, entities.Intent, error) {
	years := ans.Years

	switch len(ans.Companies) {
	case 2:
		c1, c2 := ans.Companies[0], ans.Companies[1]
		var y1, y2 int
		switch len(years) {
		case 0:
			// no year anywhere in memory: compare each company's latest
			var ok1, ok2 bool
			var err error
			if y1, ok1, err = uc.latestYear(ctx, c1); err != nil {
				return "", entities.IntentCrossCompany, err
			}
			if y2, ok2, err = uc.latestYear(ctx, c2); err != nil {
				return "", entities.IntentCrossCompany, err
			}
			if !ok1 || !ok2 {
				return MsgMissingData, entities.IntentCrossCompany, nil
			}
		case 1:
			y1, y2 = years[0], years[0]
		default:
			y1, y2 = years[0], years[1]
		}
		text, err := uc.CompareCompanies(ctx, c1, y1, c2, y2, ans.Field)
		return text, entities.IntentCrossCompany, err

	case 1:
		return uc.dispatchCompany(ctx, conv, ans.Companies[0], q, ans, hasKeyword)
	}

	return MsgNotUnderstood, entities.IntentUnknown, nil
}

func (uc *QueryUseCase) dispatchCompany(ctx context.Context, conv *entities.Conversation, company, q string, ans *Answer, hasKeyword bool) (string, entities.Intent, error) {
	years := ans.Years

	switch {
	case strings.Contains(q, "last year"):
		latest, ok, prev, err := uc.lastTwoYears(ctx, company)
		if err != nil {
			return "", entities.IntentLastYear, err
		}
		if !ok {
			return fmt.Sprintf("Not enough data to compare last year for %s.", company), entities.IntentLastYear, nil
		}
		text, err := uc.CompareYears(ctx, company, ans.Field, prev, latest)
		return text, entities.IntentLastYear, err

	case hasKeyword:
		latest, ok, prev, err := uc.lastTwoYears(ctx, company)
		if err != nil {
			return "", entities.IntentTrend, err
		}
		if !ok {
			return fmt.Sprintf("Not enough data to determine change for %s.", company), entities.IntentTrend, nil
		}
		text, err := uc.CompareYears(ctx, company, ans.Field, prev, latest)
		return text, entities.IntentTrend, err

	case len(years) >= 2:
		text, err := uc.CompareYears(ctx, company, ans.Field, years[0], years[len(years)-1])
		return text, entities.IntentYearRange, err

	case len(years) == 1:
		text, found, err := uc.pointLookup(ctx, company, years[0], ans.Field)
		if err != nil {
			return "", entities.IntentPointLookup, err
		}
		if !found {
			// a bad year must not linger into the next turn
			conv.Years = nil
		}
		return text, entities.IntentPointLookup, nil
	}

	latest, ok, err := uc.latestYear(ctx, company)
	if err != nil {
		return "", entities.IntentLatestLookup, err
	}
	if !ok {
		return fmt.Sprintf("No data for %s.", company), entities.IntentLatestLookup, nil
	}
	text, _, err := uc.pointLookup(ctx, company, latest, ans.Field)
	return text, entities.IntentLatestLookup, err
}

// pointLookup renders a single figure. found is false when the ledger has
// no value for the company, year and field.
func (uc *QueryUseCase) pointLookup(ctx context.Context, company string, year int, field entities.Field) (string, bool, error) {
	rec, err := uc.ledger.Lookup(ctx, company, year)
	if err != nil {
		return "", false, fmt.Errorf("looking up %s %d: %w", company, year, err)
	}
	noData := fmt.Sprintf("No data for %s in %d.", company, year)
	if rec == nil {
		return noData, false, nil
	}
	v, ok := rec.Value(field)
	if !ok {
		return noData, false, nil
	}
	return fmt.Sprintf("%s's %s in %d was %s.", company, field, year, format.Currency(v)), true, nil
}

// latestYear returns the most recent fiscal year on file for a company.
func (uc *QueryUseCase) latestYear(ctx context.Context, company string) (int, bool, error) {
	years, err := uc.ledger.YearsFor(ctx, company)
	if err != nil {
		return 0, false, fmt.Errorf("listing years for %s: %w", company, err)
	}
	if len(years) == 0 {
		return 0, false, nil
	}
	return years[len(years)-1], true, nil
}

// lastTwoYears returns the latest and second-latest fiscal years; ok is
// false when fewer than two exist.
func (uc *QueryUseCase) lastTwoYears(ctx context.Context, company string) (latest int, ok bool, previous int, err error) {
	years, err := uc.ledger.YearsFor(ctx, company)
	if err != nil {
		return 0, false, 0, fmt.Errorf("listing years for %s: %w", company, err)
	}
	if len(years) < 2 {
		return 0, false, 0, nil
	}
	return years[len(years)-1], true, years[len(years)-2], nil
}
