package usecases

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/format"
)

// Fixed replies.
const (
	MsgNotUnderstood = "Sorry, I couldn’t understand. Try mentioning a company, field, or year."
	MsgUnknownMetric = "Sorry, I couldn't determine the financial metric you're asking about."
	MsgMissingData   = "Some data is missing."
)

// CompareCompanies renders one field for two (company, year) pairs.
func (uc *QueryUseCase) CompareCompanies(ctx context.Context, company1 string, year1 int, company2 string, year2 int, field entities.Field) (string, error) {
	if field == entities.NoField {
		return MsgUnknownMetric, nil
	}

	r1, err := uc.ledger.Lookup(ctx, company1, year1)
	if err != nil {
		return "", fmt.Errorf("looking up %s %d: %w", company1, year1, err)
	}
	r2, err := uc.ledger.Lookup(ctx, company2, year2)
	if err != nil {
		return "", fmt.Errorf("looking up %s %d: %w", company2, year2, err)
	}
	if r1 == nil || r2 == nil {
		return MsgMissingData, nil
	}
	v1, ok1 := r1.Value(field)
	v2, ok2 := r2.Value(field)
	if !ok1 || !ok2 {
		return MsgMissingData, nil
	}

	if year1 == year2 {
		return fmt.Sprintf("In %d, %s had %s in %s and %s had %s.",
			year1, company1, format.Currency(v1), field,
			company2, format.Currency(v2)), nil
	}
	return fmt.Sprintf("In %d, %s had %s in %s, whereas in %d, %s had %s.",
		year1, company1, format.Currency(v1), field,
		year2, company2, format.Currency(v2)), nil
}

// CompareYears renders the change of one company's field from year1 to year2.
func (uc *QueryUseCase) CompareYears(ctx context.Context, company string, field entities.Field, year1, year2 int) (string, error) {
	if field == entities.NoField {
		return MsgUnknownMetric, nil
	}

	r1, err := uc.ledger.Lookup(ctx, company, year1)
	if err != nil {
		return "", fmt.Errorf("looking up %s %d: %w", company, year1, err)
	}
	r2, err := uc.ledger.Lookup(ctx, company, year2)
	if err != nil {
		return "", fmt.Errorf("looking up %s %d: %w", company, year2, err)
	}
	notFound := fmt.Sprintf("Data for %s in %d or %d not found.", company, year1, year2)
	if r1 == nil || r2 == nil {
		return notFound, nil
	}
	v1, ok1 := r1.Value(field)
	v2, ok2 := r2.Value(field)
	if !ok1 || !ok2 {
		return notFound, nil
	}

	diff, pct := Change(v1, v2)
	trend := "decreased"
	if diff.IsPositive() {
		trend = "increased"
	}
	return fmt.Sprintf("%s's %s %s by %s (%s%%) from %d (%s) to %d (%s).",
		company, field, trend,
		format.Currency(diff.Abs()),
		format.Percent(math.Abs(pct)),
		year1, format.Currency(v1),
		year2, format.Currency(v2)), nil
}

// Change returns to-from and the percentage change relative to from.
// The percentage is float division, so half-way cases round the way the
// printed binary value does. It is zero when from is zero.
func Change(from, to decimal.Decimal) (diff decimal.Decimal, pct float64) {
	diff = to.Sub(from)
	if from.IsZero() {
		return diff, 0
	}
	return diff, diff.InexactFloat64() / from.InexactFloat64() * 100
}
