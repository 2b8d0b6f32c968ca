package engine

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds compatibility forms (full-width letters and
// punctuation) via NFKC and collapses every whitespace run to a single
// space. Option bodies and candidate answers are always compared in this
// form.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	folded := norm.NFKC.String(s)
	return strings.Join(strings.Fields(folded), " ")
}
