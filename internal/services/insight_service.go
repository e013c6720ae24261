package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bankpulse/review-insights/internal/engine"
	"github.com/bankpulse/review-insights/internal/models"
	"github.com/bankpulse/review-insights/internal/store"
	"github.com/bankpulse/review-insights/internal/utils"
)

// ErrNoReviews means an analyze request supplied no reviews and did not ask
// for a platform fetch.
var ErrNoReviews = errors.New("no reviews supplied and fetch not requested")

// ReviewFetcher pulls raw reviews from the review platform.
type ReviewFetcher interface {
	FetchReviews(ctx context.Context, groups []string) ([]models.RawReview, error)
}

// ReviewReader exposes the persisted record set to the query endpoints.
type ReviewReader interface {
	ListReviews(ctx context.Context, filter store.Filter) ([]models.ReviewRecord, error)
	LatestSummary(ctx context.Context) (models.RunSummary, error)
}

// InsightService fronts the analysis pipeline for the HTTP API.
type InsightService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	fetcher   ReviewFetcher
	reader    ReviewReader
	latencies *utils.LatencyTracker
}

// NewInsightService constructs the service facade.
func NewInsightService(logger *slog.Logger, pipeline *engine.Pipeline, fetcher ReviewFetcher, reader ReviewReader) *InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightService{
		logger:    logger,
		pipeline:  pipeline,
		fetcher:   fetcher,
		reader:    reader,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze runs one batch analysis. Reviews come inline with the request or,
// when Fetch is set, from the review platform.
func (s *InsightService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	raws := req.Reviews
	if req.Fetch {
		if s.fetcher == nil {
			return nil, utils.NewAppError(utils.OpAnalyze, "review fetcher not configured", nil)
		}
		fetched, err := s.fetcher.FetchReviews(ctx, req.Groups)
		if err != nil {
			return nil, utils.NewAppError(utils.OpAnalyze, "fetch reviews", err)
		}
		raws = append(raws, fetched...)
	}
	if len(raws) == 0 {
		return nil, ErrNoReviews
	}

	start := time.Now()
	result, err := s.pipeline.Run(ctx, raws)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("analysis run failed", slog.Any("error", err))
		return nil, utils.NewAppError(utils.OpAnalyze, "pipeline run", err)
	}

	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		snap := s.latencies.Snapshot()
		s.logger.Info("analysis latency",
			slog.Duration("p50", snap.P50),
			slog.Duration("p95", snap.P95),
			slog.Duration("max", snap.Max),
			slog.Int("samples", snap.Count))
	}
	return result, nil
}

// Reviews returns persisted reviews matching the filter.
func (s *InsightService) Reviews(ctx context.Context, filter store.Filter) ([]models.ReviewRecord, error) {
	if s.reader == nil {
		return nil, utils.NewAppError(utils.OpReviews, "store not configured", nil)
	}
	records, err := s.reader.ListReviews(ctx, filter)
	if err != nil {
		s.logger.Error("list reviews failed", slog.Any("error", err))
		return nil, utils.NewAppError(utils.OpReviews, "list reviews", err)
	}
	return records, nil
}

// LatestRun returns the most recent persisted run summary.
func (s *InsightService) LatestRun(ctx context.Context) (models.RunSummary, error) {
	if s.reader == nil {
		return models.RunSummary{}, utils.NewAppError(utils.OpLatestRun, "store not configured", nil)
	}
	return s.reader.LatestSummary(ctx)
}

// LatencyP95 reports the current p95 analysis latency.
func (s *InsightService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}
