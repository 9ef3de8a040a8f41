package dedupe

import (
	"strings"
	"unicode"
)

// stopWords are dropped from normalized titles so that filler words do not
// inflate similarity between unrelated headlines.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"to": {}, "and": {}, "or": {}, "with": {}, "at": {}, "by": {}, "from": {},
	"is": {}, "are": {}, "as": {}, "its": {}, "it": {}, "has": {}, "have": {},
}

// NormalizeTitle lower-cases a title, replaces punctuation with spaces,
// strips stop words and collapses whitespace. The same normalization backs
// duplicate detection and insight-topic fingerprints.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)

	var kept []string
	for _, tok := range strings.Fields(cleaned) {
		if _, skip := stopWords[tok]; skip {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Similarity scores two titles in [0,1] with the Dice coefficient over
// their normalized token sets.
func Similarity(a, b string) float64 {
	ta := tokenSet(NormalizeTitle(a))
	tb := tokenSet(NormalizeTitle(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
