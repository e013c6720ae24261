package sentiment

import (
	"context"
	"errors"

	"github.com/bankpulse/review-insights/internal/models"
)

// Result is a single strategy's verdict on a review text.
type Result struct {
	Label models.SentimentLabel
	Score float64 // confidence in Label, 0..1
}

// Strategy classifies review text. Implementations must be safe for
// concurrent use; a strategy that cannot produce a verdict returns an error
// so the cascade can fall through.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, text string) (Result, error)
}

// ErrAllStrategiesFailed is returned by the cascade when no strategy could
// classify a text. The record it belongs to is reported as failed, never
// defaulted.
var ErrAllStrategiesFailed = errors.New("sentiment: all strategies failed")
