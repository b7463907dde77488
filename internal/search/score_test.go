package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"invoice", "2024", "q1"}, Tokenize("Invoice/2024 (Q1)"))
	assert.Equal(t, []string{"bill", "of", "lading"}, Tokenize("  Bill-of-Lading  "))
	assert.Empty(t, Tokenize("--- !!! ---"))
	assert.Empty(t, Tokenize(""))
}

func TestTokenizeNonLatinScripts(t *testing.T) {
	assert.Equal(t, []string{"فاتورة"}, Tokenize("فاتورة"))
	assert.Equal(t, []string{"накладная", "2024"}, Tokenize("Накладная №2024"))
	assert.Equal(t, []string{"請求書"}, Tokenize("請求書"))
}

func TestScoreWeightsFieldsDifferently(t *testing.T) {
	tokens := Tokenize("invoice")

	title := Score(tokens, Fields{Title: "Invoice March"})
	content := Score(tokens, Fields{Content: "invoice"})
	reference := Score(tokens, Fields{Reference: "INVOICE-77"})
	description := Score(tokens, Fields{Description: "the invoice"})

	assert.Equal(t, WeightTitle, title)
	assert.Equal(t, WeightContent, content)
	assert.Equal(t, WeightReference, reference)
	assert.Equal(t, WeightDescription, description)
	assert.Greater(t, title, content)
	assert.Greater(t, content, reference)
	assert.Greater(t, reference, description)
}

func TestScoreCountsEveryMatchingWord(t *testing.T) {
	tokens := Tokenize("tax")
	// "tax" appears as a substring of two title words.
	got := Score(tokens, Fields{Title: "Tax and taxation"})
	assert.Equal(t, 2*WeightTitle, got)
}

func TestScoreSubstringMatch(t *testing.T) {
	// Token-contains matching must behave like ILIKE '%tok%'.
	tokens := Tokenize("oice")
	assert.Equal(t, WeightTitle, Score(tokens, Fields{Title: "Invoice"}))
}

func TestScoreNoTokens(t *testing.T) {
	assert.Zero(t, Score(nil, Fields{Title: "anything"}))
}
