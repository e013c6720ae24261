package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bankpulse/review-insights/internal/anomaly"
	"github.com/bankpulse/review-insights/internal/models"
	"github.com/bankpulse/review-insights/internal/themes"
)

// ErrUnannotatedRecord means aggregation ran before every record had a
// sentiment label. A contract violation in the pipeline, never a user error.
var ErrUnannotatedRecord = errors.New("aggregate: record missing sentiment annotation")

// Aggregator reduces a fully annotated record set into per-group and global
// statistics. Pure: derivable from the record set alone, no state carried
// between runs.
type Aggregator struct {
	mapper *themes.Mapper
}

func New(mapper *themes.Mapper) *Aggregator {
	return &Aggregator{mapper: mapper}
}

// Aggregate computes stats per group and globally. Group order is sorted by
// group id so output is deterministic regardless of worker completion order.
func (a *Aggregator) Aggregate(records []models.ReviewRecord) (models.Stats, error) {
	for i := range records {
		if !records[i].SentimentLabel.Valid() {
			return models.Stats{}, fmt.Errorf("%w: record %s", ErrUnannotatedRecord, records[i].ID)
		}
	}

	byGroup := make(map[string][]models.ReviewRecord)
	for _, rec := range records {
		byGroup[rec.GroupID] = append(byGroup[rec.GroupID], rec)
	}

	groupIDs := make([]string, 0, len(byGroup))
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	stats := models.Stats{Groups: make([]models.GroupStats, 0, len(groupIDs))}
	for _, id := range groupIDs {
		stats.Groups = append(stats.Groups, a.reduce(id, byGroup[id]))
	}
	stats.Global = a.reduce("", records)
	return stats, nil
}

func (a *Aggregator) reduce(groupID string, records []models.ReviewRecord) models.GroupStats {
	gs := models.GroupStats{
		GroupID:           groupID,
		TotalReviews:      len(records),
		SentimentCounts:   make(map[models.SentimentLabel]int),
		SentimentPercents: make(map[models.SentimentLabel]float64),
		RatingCounts:      make(map[int]int),
		RatingPercents:    make(map[int]float64),
	}
	if len(records) == 0 {
		return gs
	}

	var scoreSum float64
	for _, rec := range records {
		gs.SentimentCounts[rec.SentimentLabel]++
		gs.RatingCounts[rec.Rating]++
		scoreSum += rec.SentimentScore
		if rec.IsAnomalous {
			gs.AnomalousReviews++
		}
	}

	total := float64(len(records))
	gs.MeanSentiment = scoreSum / total
	for label, count := range gs.SentimentCounts {
		gs.SentimentPercents[label] = 100 * float64(count) / total
	}
	for rating, count := range gs.RatingCounts {
		gs.RatingPercents[rating] = 100 * float64(count) / total
	}
	gs.AnomalyRate = float64(gs.AnomalousReviews) / total
	gs.Themes = a.mapper.GroupThemes(records)
	return gs
}

// Verify recomputes anomaly flags and fails if any stored flag disagrees.
// Used by callers that receive records from outside the pipeline.
func Verify(records []models.ReviewRecord) error {
	for _, rec := range records {
		if rec.IsAnomalous != anomaly.Flag(rec.Rating, rec.SentimentLabel) {
			return fmt.Errorf("record %s carries a stale anomaly flag", rec.ID)
		}
	}
	return nil
}
