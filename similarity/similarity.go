// Package similarity provides the lexical scoring primitives used to compare
// medicine names: normalisation, tokenisation and token-overlap scoring.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases a name and strips diacritics, so that "Paracétamol"
// and "PARACETAMOL" normalise to the same string.
//
// Transformers and casers carry state, so a fresh chain is built per call.
func Normalize(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return cases.Lower(language.Und).String(folded)
}

// Tokenize splits a normalised name on whitespace.
func Tokenize(name string) []string {
	return strings.Fields(Normalize(name))
}

// Score returns the token-overlap similarity of two medicine names in [0, 1].
//
// Two tokens match when they are equal or one contains the other. Each token
// of the first name contributes at most one match (the first matching token
// of the second name wins) and the match count is divided by the longer
// token list. The directional score is computed both ways and the lower value
// is returned so Score is symmetric. This is stricter than a one-way count
// whenever several tokens of one name land on the same token of the other:
// "para cetamol" against "paracetamol" scores 0.5, not 1.
func Score(name1, name2 string) float64 {
	tokens1 := Tokenize(name1)
	tokens2 := Tokenize(name2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	forward := directional(tokens1, tokens2)
	backward := directional(tokens2, tokens1)
	if backward < forward {
		return backward
	}
	return forward
}

func directional(tokens1, tokens2 []string) float64 {
	matches := 0
	for _, t1 := range tokens1 {
		for _, t2 := range tokens2 {
			if tokensMatch(t1, t2) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(max(len(tokens1), len(tokens2)))
}

func tokensMatch(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// NamesOverlap reports whether either name contains the other after
// normalisation. Empty names never overlap.
func NamesOverlap(a, b string) bool {
	na := Normalize(strings.TrimSpace(a))
	nb := Normalize(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
