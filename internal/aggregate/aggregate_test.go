package aggregate

import (
	"errors"
	"testing"

	"github.com/bankpulse/review-insights/internal/models"
	"github.com/bankpulse/review-insights/internal/themes"
)

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	taxonomy, err := themes.LoadTaxonomy("")
	if err != nil {
		t.Fatalf("LoadTaxonomy: %v", err)
	}
	mapper := themes.NewMapper(taxonomy, themes.Thresholds{
		NegativeMedium: 0.40, NegativeHigh: 0.70, FrequencyHigh: 30,
	}, 5)
	return New(mapper)
}

func annotated(id, group string, rating int, label models.SentimentLabel, score float64) models.ReviewRecord {
	return models.ReviewRecord{
		ID: id, GroupID: group, Rating: rating,
		SentimentLabel: label, SentimentScore: score,
	}
}

func TestAggregateSentimentDistribution(t *testing.T) {
	a := newAggregator(t)

	var records []models.ReviewRecord
	for i := 0; i < 6; i++ {
		records = append(records, annotated("", "alpha-bank", 5, models.SentimentPositive, 0.9))
	}
	for i := 0; i < 2; i++ {
		records = append(records, annotated("", "alpha-bank", 3, models.SentimentNeutral, 0.5))
	}
	for i := 0; i < 2; i++ {
		records = append(records, annotated("", "alpha-bank", 1, models.SentimentNegative, 0.8))
	}

	stats, err := a.Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(stats.Groups))
	}
	g := stats.Groups[0]
	if g.SentimentPercents[models.SentimentPositive] != 60 ||
		g.SentimentPercents[models.SentimentNeutral] != 20 ||
		g.SentimentPercents[models.SentimentNegative] != 20 {
		t.Fatalf("distribution = %v, want 60/20/20", g.SentimentPercents)
	}
	if g.RatingCounts[5] != 6 || g.RatingCounts[3] != 2 || g.RatingCounts[1] != 2 {
		t.Fatalf("rating counts = %v", g.RatingCounts)
	}
	wantMean := (6*0.9 + 2*0.5 + 2*0.8) / 10
	if diff := g.MeanSentiment - wantMean; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mean sentiment = %v, want %v", g.MeanSentiment, wantMean)
	}
}

func TestAggregateGroupsAndGlobal(t *testing.T) {
	a := newAggregator(t)
	records := []models.ReviewRecord{
		annotated("a", "beta-bank", 5, models.SentimentPositive, 0.9),
		annotated("b", "alpha-bank", 1, models.SentimentNegative, 0.8),
		annotated("c", "alpha-bank", 2, models.SentimentNegative, 0.7),
	}

	stats, err := a.Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(stats.Groups))
	}
	// Sorted by group id for deterministic output.
	if stats.Groups[0].GroupID != "alpha-bank" || stats.Groups[1].GroupID != "beta-bank" {
		t.Fatalf("group order = %v/%v", stats.Groups[0].GroupID, stats.Groups[1].GroupID)
	}
	if stats.Groups[0].TotalReviews != 2 || stats.Groups[1].TotalReviews != 1 {
		t.Fatalf("group sizes wrong: %+v", stats.Groups)
	}
	if stats.Global.TotalReviews != 3 {
		t.Fatalf("global total = %d, want 3", stats.Global.TotalReviews)
	}
}

func TestAggregateAnomalyRate(t *testing.T) {
	a := newAggregator(t)
	records := []models.ReviewRecord{
		annotated("a", "alpha-bank", 1, models.SentimentPositive, 0.9),
		annotated("b", "alpha-bank", 5, models.SentimentPositive, 0.9),
	}
	records[0].IsAnomalous = true

	stats, err := a.Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.Global.AnomalousReviews != 1 || stats.Global.AnomalyRate != 0.5 {
		t.Fatalf("anomaly stats = %d/%v", stats.Global.AnomalousReviews, stats.Global.AnomalyRate)
	}
}

func TestAggregateRejectsUnannotated(t *testing.T) {
	a := newAggregator(t)
	records := []models.ReviewRecord{
		{ID: "a", GroupID: "alpha-bank", Rating: 4},
	}
	if _, err := a.Aggregate(records); !errors.Is(err, ErrUnannotatedRecord) {
		t.Fatalf("expected ErrUnannotatedRecord, got %v", err)
	}
}

func TestAggregateEmptySet(t *testing.T) {
	a := newAggregator(t)
	stats, err := a.Aggregate(nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats.Groups) != 0 || stats.Global.TotalReviews != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}
