// Package textnorm canonicalizes sentence text before comparison.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const Ellipsis = "…"

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`, "«", `"`, "»", `"`,
)

// collapsible marks are reduced to a single occurrence when repeated.
var collapsible = map[rune]bool{
	'!': true, '?': true, ',': true, ';': true, ':': true,
	'。': true, '、': true, '~': true, '-': true,
}

// Normalize returns the canonical form of text. It is pure and idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := norm.NFKC.String(text)
	s = width.Fold.String(s)
	s = quoteReplacer.Replace(s)
	s = collapseWhitespace(s)
	// NFKC decomposes … into "...", collapsePunctuation recomposes it.
	s = collapsePunctuation(s)

	return strings.TrimSpace(s)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func collapsePunctuation(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); {
		r := runes[i]
		if r != '.' && r != '…' && !collapsible[r] {
			b.WriteRune(r)
			i++
			continue
		}

		j := i
		if r == '.' || r == '…' {
			dots := 0
			for j < len(runes) && (runes[j] == '.' || runes[j] == '…') {
				if runes[j] == '…' {
					dots += 3
				} else {
					dots++
				}
				j++
			}
			if dots >= 3 {
				b.WriteString(Ellipsis)
			} else {
				b.WriteRune('.')
			}
			i = j
			continue
		}

		for j < len(runes) && runes[j] == r {
			j++
		}
		b.WriteRune(r)
		i = j
	}

	return b.String()
}
