// Package format renders numbers for answer templates.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency renders v with a dollar prefix at its stored precision:
// $1,234.5, $-200.
func Currency(v decimal.Decimal) string {
	return "$" + Grouped(v)
}

// Percent renders p with two decimals and no grouping: 50.00.
func Percent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// Grouped inserts thousands separators into the integer part of v and keeps
// the fractional digits as stored.
func Grouped(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}

	frac := ""
	if s := v.String(); strings.Contains(s, ".") {
		frac = s[strings.IndexByte(s, '.'):]
	}
	return sign + humanize.BigComma(v.Truncate(0).BigInt()) + frac
}
