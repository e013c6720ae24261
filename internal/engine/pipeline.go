package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bankpulse/review-insights/internal/aggregate"
	"github.com/bankpulse/review-insights/internal/anomaly"
	"github.com/bankpulse/review-insights/internal/dedup"
	"github.com/bankpulse/review-insights/internal/keywords"
	"github.com/bankpulse/review-insights/internal/metrics"
	"github.com/bankpulse/review-insights/internal/models"
	"github.com/bankpulse/review-insights/internal/sentiment"
	"github.com/bankpulse/review-insights/internal/themes"
)

// Classifier is the sentiment capability the pipeline depends on; satisfied
// by *sentiment.Cascade.
type Classifier interface {
	Classify(ctx context.Context, text string) (sentiment.Result, error)
}

// Store receives each completed run. Persistence failures do not fail the
// run; the result is still returned to the caller.
type Store interface {
	SaveRun(ctx context.Context, summary models.RunSummary, records []models.ReviewRecord) error
}

// Pipeline turns raw reviews into annotated records plus aggregate stats:
// clean, classify and extract in parallel, map themes, flag anomalies, then
// reduce behind a barrier.
type Pipeline struct {
	logger     *slog.Logger
	dedup      *dedup.Deduplicator
	classifier Classifier
	extractor  *keywords.Extractor
	mapper     *themes.Mapper
	aggregator *aggregate.Aggregator
	store      Store
	workers    int
}

func NewPipeline(
	logger *slog.Logger,
	deduplicator *dedup.Deduplicator,
	classifier Classifier,
	extractor *keywords.Extractor,
	mapper *themes.Mapper,
	aggregator *aggregate.Aggregator,
	store Store,
	workers int,
) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		logger:     logger,
		dedup:      deduplicator,
		classifier: classifier,
		extractor:  extractor,
		mapper:     mapper,
		aggregator: aggregator,
		store:      store,
		workers:    workers,
	}
}

// job ties a record to its group's keyword index.
type job struct {
	recordIdx int
	index     *keywords.GroupIndex
	docIdx    int
}

// Run executes one batch analysis. Record-level failures never abort the
// batch; they are withheld from the output and reported in the summary.
func (p *Pipeline) Run(ctx context.Context, raws []models.RawReview) (*models.AnalysisResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	records, report := p.dedup.Clean(raws)
	metrics.CountDropped(metrics.DropInvalid, report.DroppedInvalid)
	metrics.CountDropped(metrics.DropIntraGroup, report.DroppedIntraGroup)
	metrics.CountDropped(metrics.DropCrossGroup, report.DroppedCrossGroup)

	jobs, groupIndexes := p.indexGroups(records)

	failures := p.annotate(ctx, records, jobs)

	var (
		survivors      []models.ReviewRecord
		failureReports []models.RecordFailure
	)
	for i := range records {
		if reason, failed := failures[i]; failed {
			failureReports = append(failureReports, models.RecordFailure{
				ID:      records[i].ID,
				GroupID: records[i].GroupID,
				Reason:  reason,
			})
			continue
		}
		survivors = append(survivors, records[i])
	}

	_, anomalyRate := anomaly.Apply(survivors)

	stats, err := p.aggregator.Aggregate(survivors)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
		return nil, fmt.Errorf("aggregate annotated records: %w", err)
	}
	p.attachGroupKeywords(&stats, records, jobs, failures, groupIndexes)

	coverage := 0.0
	if report.Survivors > 0 {
		coverage = 100 * float64(len(survivors)) / float64(report.Survivors)
	}
	summary := models.RunSummary{
		RunID:             runID,
		StartedAt:         start,
		Duration:          time.Since(start),
		InputReviews:      report.Input,
		DroppedInvalid:    report.DroppedInvalid,
		DroppedIntraGroup: report.DroppedIntraGroup,
		DroppedCrossGroup: report.DroppedCrossGroup,
		FailedRecords:     len(failureReports),
		AnalyzedReviews:   len(survivors),
		SentimentCoverage: coverage,
		AnomalyRate:       anomalyRate,
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, summary, survivors); err != nil {
			logger.Warn("failed to persist run", "error", err)
		}
	}

	metrics.ObserveAnalysis(summary.Duration, metrics.OutcomeSuccess)
	metrics.CountAnalyzed(len(survivors))
	logger.Info("analysis run complete",
		"input", summary.InputReviews,
		"analyzed", summary.AnalyzedReviews,
		"failed", summary.FailedRecords,
		"anomaly_rate", summary.AnomalyRate,
		"duration", summary.Duration,
	)

	return &models.AnalysisResult{
		Summary:  summary,
		Records:  survivors,
		Failures: failureReports,
		Stats:    stats,
	}, nil
}

// indexGroups builds one keyword index per group and one job per record.
// Indexes are read-only once built, so workers share them without locks.
func (p *Pipeline) indexGroups(records []models.ReviewRecord) ([]job, map[string]*keywords.GroupIndex) {
	groupOrder := make([]string, 0)
	texts := make(map[string][]string)

	jobs := make([]job, len(records))
	for i, rec := range records {
		if _, seen := texts[rec.GroupID]; !seen {
			groupOrder = append(groupOrder, rec.GroupID)
		}
		jobs[i] = job{recordIdx: i, docIdx: len(texts[rec.GroupID])}
		texts[rec.GroupID] = append(texts[rec.GroupID], rec.Text)
	}

	indexes := make(map[string]*keywords.GroupIndex, len(groupOrder))
	for _, group := range groupOrder {
		indexes[group] = p.extractor.BuildIndex(texts[group])
	}
	for i := range jobs {
		jobs[i].index = indexes[records[i].GroupID]
	}
	return jobs, indexes
}

// annotate runs classification, keyword extraction, and theme mapping on a
// worker pool. Workers write to disjoint record slots; the WaitGroup is the
// barrier before any cross-record reduction.
func (p *Pipeline) annotate(ctx context.Context, records []models.ReviewRecord, jobs []job) map[int]string {
	var (
		mu       sync.Mutex
		failures = make(map[int]string)
		wg       sync.WaitGroup
		work     = make(chan job)
	)

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range work {
				rec := &records[j.recordIdx]
				result, err := p.classifier.Classify(ctx, rec.Text)
				if err != nil {
					mu.Lock()
					failures[j.recordIdx] = err.Error()
					mu.Unlock()
					continue
				}
				rec.SentimentLabel = result.Label
				rec.SentimentScore = result.Score
				rec.Keywords = p.extractor.Extract(j.index, j.docIdx)
				rec.Themes = p.mapper.MatchRecord(rec.Keywords)
			}
		}()
	}

	for _, j := range jobs {
		work <- j
	}
	close(work)
	wg.Wait()
	return failures
}

// docState mirrors one indexed document: its final label and whether it
// survived classification. Failed docs stay in the index (their terms still
// shape document frequencies) but are excluded from every pass.
type docState struct {
	label models.SentimentLabel
	ok    bool
}

// attachGroupKeywords adds the all/complaint/praise keyword passes to each
// group's stats.
func (p *Pipeline) attachGroupKeywords(stats *models.Stats, records []models.ReviewRecord, jobs []job, failures map[int]string, indexes map[string]*keywords.GroupIndex) {
	docs := make(map[string][]docState, len(indexes))
	for group, idx := range indexes {
		docs[group] = make([]docState, idx.Docs())
	}
	for _, j := range jobs {
		rec := records[j.recordIdx]
		_, failed := failures[j.recordIdx]
		docs[rec.GroupID][j.docIdx] = docState{label: rec.SentimentLabel, ok: !failed}
	}

	for i := range stats.Groups {
		group := stats.Groups[i].GroupID
		idx, ok := indexes[group]
		if !ok {
			continue
		}
		state := docs[group]
		stats.Groups[i].Keywords = p.extractor.GroupPass(idx, func(d int) bool {
			return state[d].ok
		})
		stats.Groups[i].ComplaintKeywords = p.extractor.GroupPass(idx, func(d int) bool {
			return state[d].ok && state[d].label == models.SentimentNegative
		})
		stats.Groups[i].PraiseKeywords = p.extractor.GroupPass(idx, func(d int) bool {
			return state[d].ok && state[d].label == models.SentimentPositive
		})
	}
}
