package roster

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// subPattern matches "SUB: <in> FOR <out>" play descriptions.
var subPattern = regexp.MustCompile(`(?i)^\s*sub(?:stitution)?\s*:\s*(.+?)\s+for\s+(.+?)\s*$`)

// ParseSubstitution extracts the entering and leaving player names from a
// substitution description.
func ParseSubstitution(text string) (in, out string, ok bool) {
	m := subPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Normalize folds a player name for comparison: accents are stripped, case is
// folded, punctuation becomes whitespace (apostrophes are dropped) and runs of
// whitespace collapse to one space. Casers and transformers are stateful, so
// they are built per call.
func Normalize(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// similarity returns 1 - levenshtein(a, b)/max(len(a), len(b)) over runes.
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
