package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FoldName returns the comparison form of a user-facing name: trimmed,
// NFC-normalized and case-folded. Group display names and action names are
// compared in this form.
func FoldName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// SameName reports whether two names are equal ignoring case.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
