// Package matching provides nearest-match lookups over short strings.
// Scores follow difflib's SequenceMatcher ratio: 2*M/T on a 0-1 scale.
package matching

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// CloseMatch returns the possibility most similar to word whose score is at
// least cutoff. Ties go to the lexically greatest candidate.
func CloseMatch(word string, possibilities []string, cutoff float64) (string, bool) {
	if cutoff <= 0 || cutoff > 1 {
		return "", false
	}

	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(chars(word))

	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, p := range possibilities {
		m.SetSeq1(chars(p))
		// cheap upper bounds first, as difflib does
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score < cutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && p > best) {
			best, bestScore, found = p, score, true
		}
	}
	return best, found
}

func chars(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "")
}
