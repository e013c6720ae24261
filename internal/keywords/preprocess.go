package keywords

import (
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Apostrophes are dropped so contractions collapse ("don't" ->
// "dont") and match the stopword list.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\'' {
			return -1
		}
		return r
	}, strings.ToLower(text))

	return strings.FieldsFunc(cleaned, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// baseForm applies a light suffix stemmer so inflections of the same word
// count as one term. Deliberately conservative: a wrong merge is worse than
// a missed one.
func baseForm(tok string) string {
	switch {
	case len(tok) > 4 && strings.HasSuffix(tok, "ies"):
		return tok[:len(tok)-3] + "y"
	case hasAnySuffix(tok, "shes", "ches", "sses", "xes", "zes"):
		return tok[:len(tok)-2]
	case len(tok) > 5 && strings.HasSuffix(tok, "ing"):
		return tok[:len(tok)-3]
	case len(tok) > 4 && strings.HasSuffix(tok, "ed"):
		return tok[:len(tok)-2]
	case len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss"):
		return tok[:len(tok)-1]
	}
	return tok
}

func hasAnySuffix(tok string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(tok, suffix) {
			return true
		}
	}
	return false
}

// chunks splits a token stream into maximal runs of content tokens, broken
// at stopwords. Each run approximates a noun phrase; candidates never cross
// a run boundary.
func chunks(tokens []string) [][]string {
	var out [][]string
	var current []string
	for _, tok := range tokens {
		if isStopword(tok) {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, baseForm(tok))
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
