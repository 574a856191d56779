package matching

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// noiseTokens are marketing/filler words that carry no identity signal and
// are dropped before comparison.
var noiseTokens = map[string]struct{}{
	"new":       {},
	"original":  {},
	"genuine":   {},
	"hot":       {},
	"sale":      {},
	"promo":     {},
	"offer":     {},
	"oem":       {},
	"pcs":       {},
	"pc":        {},
	"lot":       {},
	"wholesale": {},
}

var folder = cases.Fold()

// Normalize lowercases (Unicode case folding), maps punctuation to spaces
// and collapses whitespace. Dots and commas between digits survive so that
// "1.9m" stays one token.
func Normalize(s string) string {
	folded := folder.String(strings.TrimSpace(s))
	runes := []rune(folded)
	var sb strings.Builder
	sb.Grow(len(folded))
	for i, r := range runes {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case (r == '.' || r == ',') && i > 0 && i < len(runes)-1 &&
			isDigit(runes[i-1]) && isDigit(runes[i+1]):
			sb.WriteRune('.')
		case r > 127 && unicode.IsLetter(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Tokens normalizes and splits into tokens with noise words removed.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := fields[:0]
	for _, f := range fields {
		if _, noisy := noiseTokens[f]; noisy {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sortedJoin returns the tokens sorted and space-joined, the canonical form
// used for order-insensitive string comparison.
func sortedJoin(tokens []string) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
