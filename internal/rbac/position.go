package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const stkManagerMarker = "stk birim başk"

// NormalizePosition folds a free-text position with Turkish casing rules so
// that "BAŞKANI" and "başkanı" compare equal and dotted/dotless i are kept apart.
func NormalizePosition(position string) string {
	folded := cases.Lower(language.Turkish).String(position)
	return strings.Join(strings.Fields(folded), " ")
}

// IsSTKManagerPosition reports whether a position names the STK unit head.
func IsSTKManagerPosition(position string) bool {
	if position == "" {
		return false
	}
	return strings.Contains(NormalizePosition(position), stkManagerMarker)
}
