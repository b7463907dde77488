package search

import (
	"strings"
	"unicode"
)

// Field weights for relevance ranking: title outranks extracted text, which
// outranks the reference number, which outranks the description. Both
// backends score with the same function, so a relevance-ordered page is
// identical whichever path served it.
const (
	WeightTitle       = 4
	WeightContent     = 3
	WeightReference   = 2
	WeightDescription = 1
)

// Fields carries the scorable text of one document.
type Fields struct {
	Title       string
	Content     string
	Reference   string
	Description string
}

// Tokenize lowercases s and splits it into maximal runs of letters and
// digits, in any script. Splitting on every other rune keeps token matching
// equivalent to a case-insensitive substring match over the original text.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score ranks a document against the query tokens. For every query token,
// each word of a field that contains the token contributes that field's
// weight. Zero means the tokens only matched unweighted fields (folder or
// tag names) or not at all.
func Score(tokens []string, f Fields) int {
	if len(tokens) == 0 {
		return 0
	}
	score := 0
	score += fieldScore(tokens, f.Title, WeightTitle)
	score += fieldScore(tokens, f.Content, WeightContent)
	score += fieldScore(tokens, f.Reference, WeightReference)
	score += fieldScore(tokens, f.Description, WeightDescription)
	return score
}

func fieldScore(tokens []string, field string, weight int) int {
	if field == "" {
		return 0
	}
	words := Tokenize(field)
	score := 0
	for _, tok := range tokens {
		for _, w := range words {
			if strings.Contains(w, tok) {
				score += weight
			}
		}
	}
	return score
}
