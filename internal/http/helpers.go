package http

import (
	"math"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// formatMoney formats an amount with thousands separators and two decimals
// (e.g., "1,234.50", "-12.00").
func formatMoney(m core.Money) string {
	s := m.Abs().String()
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if m.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// budgetProgress returns the budget usage clamped to a progress bar range.
func budgetProgress(b core.Budget) int {
	p := math.Round(b.Progress())
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isHTMX reports whether r expects a fragment. Boosted links and forms
// expect a full page like plain ones.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
}
