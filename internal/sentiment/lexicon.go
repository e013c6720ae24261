package sentiment

import (
	"bufio"
	"context"
	_ "embed"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/bankpulse/review-insights/internal/models"
)

//go:embed lexicon.txt
var lexiconData string

// negations flip the valence of a nearby sentiment-bearing token.
var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {},
	"cannot": {}, "cant": {}, "can't": {}, "wont": {}, "won't": {},
	"dont": {}, "don't": {}, "doesnt": {}, "doesn't": {},
	"didnt": {}, "didn't": {}, "isnt": {}, "isn't": {},
	"wasnt": {}, "wasn't": {}, "without": {}, "hardly": {}, "barely": {},
}

// boosters intensify or dampen the next sentiment-bearing token.
var boosters = map[string]float64{
	"very": 0.293, "really": 0.293, "extremely": 0.293, "absolutely": 0.293,
	"completely": 0.293, "totally": 0.293, "incredibly": 0.293, "super": 0.293,
	"so": 0.293, "constantly": 0.293, "always": 0.293,
	"slightly": -0.293, "somewhat": -0.293, "barely": -0.293,
	"kinda": -0.293, "marginally": -0.293, "occasionally": -0.293,
}

const (
	negationScalar  = -0.74
	negationWindow  = 3
	compoundCutoff  = 0.05
	neutralScore    = 0.5
	normalizerAlpha = 15.0
)

// LexiconStrategy scores text against an embedded valence lexicon. It is the
// cascade's terminal strategy: Classify never returns an error.
type LexiconStrategy struct {
	valences map[string]float64
}

func NewLexiconStrategy() *LexiconStrategy {
	return &LexiconStrategy{valences: parseLexicon(lexiconData)}
}

func (s *LexiconStrategy) Name() string { return "lexicon" }

func (s *LexiconStrategy) Classify(_ context.Context, text string) (Result, error) {
	tokens := lexTokens(text)

	var sum float64
	for i, tok := range tokens {
		valence, ok := s.valences[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if boost, ok := boosters[tokens[i-1]]; ok {
				if valence < 0 {
					valence -= boost
				} else {
					valence += boost
				}
			}
		}
		if negatedBefore(tokens, i) {
			valence *= negationScalar
		}
		sum += valence
	}

	compound := sum / math.Sqrt(sum*sum+normalizerAlpha)
	return verdict(compound), nil
}

func verdict(compound float64) Result {
	switch {
	case compound >= compoundCutoff:
		return Result{Label: models.SentimentPositive, Score: (compound + 1) / 2}
	case compound <= -compoundCutoff:
		return Result{Label: models.SentimentNegative, Score: (-compound + 1) / 2}
	default:
		return Result{Label: models.SentimentNeutral, Score: neutralScore}
	}
}

func negatedBefore(tokens []string, i int) bool {
	start := i - negationWindow
	if start < 0 {
		start = 0
	}
	for _, tok := range tokens[start:i] {
		if _, neg := negations[tok]; neg {
			return true
		}
	}
	return false
}

// lexTokens lowercases and splits on non-letter boundaries, keeping
// apostrophes so contractions survive for negation lookup.
func lexTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func parseLexicon(data string) map[string]float64 {
	valences := make(map[string]float64, 256)
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, value, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		valence, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		valences[strings.ToLower(strings.TrimSpace(term))] = valence
	}
	return valences
}
