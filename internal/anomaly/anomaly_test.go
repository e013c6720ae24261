package anomaly

import (
	"testing"

	"github.com/bankpulse/review-insights/internal/models"
)

func TestFlagDisagreementTable(t *testing.T) {
	cases := []struct {
		rating int
		label  models.SentimentLabel
		want   bool
	}{
		{1, models.SentimentPositive, true},
		{2, models.SentimentPositive, true},
		{3, models.SentimentPositive, false},
		{5, models.SentimentPositive, false},
		{5, models.SentimentNegative, true},
		{4, models.SentimentNegative, true},
		{3, models.SentimentNegative, false},
		{1, models.SentimentNegative, false},
		{1, models.SentimentNeutral, false},
		{3, models.SentimentNeutral, false},
		{5, models.SentimentNeutral, false},
	}
	for _, tc := range cases {
		if got := Flag(tc.rating, tc.label); got != tc.want {
			t.Errorf("Flag(%d, %s) = %v, want %v", tc.rating, tc.label, got, tc.want)
		}
	}
}

func TestApply(t *testing.T) {
	records := []models.ReviewRecord{
		{ID: "a", Rating: 1, SentimentLabel: models.SentimentPositive},
		{ID: "b", Rating: 5, SentimentLabel: models.SentimentPositive},
		{ID: "c", Rating: 5, SentimentLabel: models.SentimentNegative},
		{ID: "d", Rating: 3, SentimentLabel: models.SentimentNeutral},
	}

	flagged, rate := Apply(records)
	if len(flagged) != 2 {
		t.Fatalf("flagged = %d, want 2", len(flagged))
	}
	if flagged[0].ID != "a" || flagged[1].ID != "c" {
		t.Fatalf("unexpected flagged set %v", flagged)
	}
	if rate != 0.5 {
		t.Fatalf("rate = %v, want 0.5", rate)
	}
	if !records[0].IsAnomalous || records[1].IsAnomalous || !records[2].IsAnomalous || records[3].IsAnomalous {
		t.Fatalf("in-place flags wrong: %+v", records)
	}
}

func TestApplyEmpty(t *testing.T) {
	flagged, rate := Apply(nil)
	if flagged != nil || rate != 0 {
		t.Fatalf("expected zero results, got %v/%v", flagged, rate)
	}
}
