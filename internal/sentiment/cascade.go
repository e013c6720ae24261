package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankpulse/review-insights/internal/metrics"
)

// FromNames resolves configured strategy names in priority order. Unknown
// names are a startup error, not a silent skip.
func FromNames(names []string, modelURL string, timeout time.Duration) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case "remote":
			strategies = append(strategies, NewRemoteStrategy(modelURL, timeout))
		case "lexicon":
			strategies = append(strategies, NewLexiconStrategy())
		default:
			return nil, fmt.Errorf("sentiment: unknown strategy %q", name)
		}
	}
	return strategies, nil
}

// Cascade tries an ordered list of strategies until one succeeds. Only the
// first successful strategy's verdict is used; there is no ensembling.
type Cascade struct {
	logger     *slog.Logger
	strategies []Strategy
}

// NewCascade builds a cascade from strategies in priority order.
func NewCascade(logger *slog.Logger, strategies ...Strategy) (*Cascade, error) {
	if len(strategies) == 0 {
		return nil, errors.New("sentiment: cascade requires at least one strategy")
	}
	return &Cascade{logger: logger, strategies: strategies}, nil
}

// Classify runs the cascade for one text. Failures of individual strategies
// are recovered by falling through; if every strategy fails the combined
// error wraps ErrAllStrategiesFailed.
func (c *Cascade) Classify(ctx context.Context, text string) (Result, error) {
	var failures []error
	for _, strategy := range c.strategies {
		result, err := strategy.Classify(ctx, text)
		if err != nil {
			metrics.CountFallback(strategy.Name())
			c.logger.Debug("sentiment strategy failed, falling through",
				"strategy", strategy.Name(), "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", strategy.Name(), err))
			continue
		}
		if !result.Label.Valid() || result.Score < 0 || result.Score > 1 {
			metrics.CountFallback(strategy.Name())
			failures = append(failures, fmt.Errorf("%s: invalid verdict %q/%v",
				strategy.Name(), result.Label, result.Score))
			continue
		}
		return result, nil
	}
	metrics.CountClassifierFailure()
	return Result{}, errors.Join(ErrAllStrategiesFailed, errors.Join(failures...))
}
