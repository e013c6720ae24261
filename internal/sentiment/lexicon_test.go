package sentiment

import (
	"context"
	"testing"

	"github.com/bankpulse/review-insights/internal/models"
)

func classify(t *testing.T, text string) Result {
	t.Helper()
	result, err := NewLexiconStrategy().Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("lexicon strategy returned error: %v", err)
	}
	return result
}

func TestLexiconNegativeComplaint(t *testing.T) {
	result := classify(t, "app crashes constantly")
	if result.Label != models.SentimentNegative {
		t.Fatalf("label = %q, want Negative", result.Label)
	}
	if result.Score < 0.5 {
		t.Fatalf("score = %v, want >= 0.5", result.Score)
	}
}

func TestLexiconPositivePraise(t *testing.T) {
	result := classify(t, "great app, really love the new design")
	if result.Label != models.SentimentPositive {
		t.Fatalf("label = %q, want Positive", result.Label)
	}
	if result.Score <= 0.5 {
		t.Fatalf("score = %v, want > 0.5", result.Score)
	}
}

func TestLexiconNeutralText(t *testing.T) {
	result := classify(t, "opened the app on tuesday to check my balance")
	if result.Label != models.SentimentNeutral {
		t.Fatalf("label = %q, want Neutral", result.Label)
	}
	if result.Score != 0.5 {
		t.Fatalf("score = %v, want 0.5", result.Score)
	}
}

func TestLexiconNegationFlipsPolarity(t *testing.T) {
	plain := classify(t, "the transfer screen is good")
	if plain.Label != models.SentimentPositive {
		t.Fatalf("baseline label = %q, want Positive", plain.Label)
	}

	negated := classify(t, "the transfer screen is not good")
	if negated.Label != models.SentimentNegative {
		t.Fatalf("negated label = %q, want Negative", negated.Label)
	}
}

func TestLexiconBoosterIntensifies(t *testing.T) {
	base := classify(t, "the app is slow")
	boosted := classify(t, "the app is very slow")
	if base.Label != models.SentimentNegative || boosted.Label != models.SentimentNegative {
		t.Fatalf("labels = %q/%q, want Negative/Negative", base.Label, boosted.Label)
	}
	if boosted.Score <= base.Score {
		t.Fatalf("booster did not raise confidence: %v <= %v", boosted.Score, base.Score)
	}
}

func TestLexiconEmptyTextIsNeutral(t *testing.T) {
	result := classify(t, "")
	if result.Label != models.SentimentNeutral || result.Score != 0.5 {
		t.Fatalf("got %q/%v, want Neutral/0.5", result.Label, result.Score)
	}
}

func TestLexiconScoresWithinBounds(t *testing.T) {
	for _, text := range []string{
		"worst banking app ever, constant crashes, lost my money, absolute nightmare",
		"amazing wonderful excellent perfect app, love it, best bank",
		"it exists",
	} {
		result := classify(t, text)
		if result.Score < 0 || result.Score > 1 {
			t.Fatalf("score %v out of range for %q", result.Score, text)
		}
	}
}
