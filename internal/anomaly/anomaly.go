package anomaly

import (
	"github.com/bankpulse/review-insights/internal/models"
)

// Flag reports whether a review's numeric rating disagrees with its
// classified sentiment. Neutral never counts as anomalous, whatever the
// rating.
func Flag(rating int, label models.SentimentLabel) bool {
	switch label {
	case models.SentimentPositive:
		return rating <= 2
	case models.SentimentNegative:
		return rating >= 4
	default:
		return false
	}
}

// Apply sets IsAnomalous on every record in place and returns the flagged
// records plus the anomaly rate over the set.
func Apply(records []models.ReviewRecord) (flagged []models.ReviewRecord, rate float64) {
	for i := range records {
		records[i].IsAnomalous = Flag(records[i].Rating, records[i].SentimentLabel)
		if records[i].IsAnomalous {
			flagged = append(flagged, records[i])
		}
	}
	if len(records) > 0 {
		rate = float64(len(flagged)) / float64(len(records))
	}
	return flagged, rate
}
