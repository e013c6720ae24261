package models

// SentimentLabel classifies the overall polarity of a review.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// Valid reports whether the label is one of the three known polarities.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Severity grades how urgent a theme's issues are for a group.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for monotonicity comparisons.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity (low=0 .. critical=3).
func (s Severity) Rank() int {
	return severityRank[s]
}

// RawReview is a review as delivered by the ingestion collaborator.
// No ID yet; identity is assigned at intake.
type RawReview struct {
	Text    string
	Rating  int
	Date    string
	GroupID string
	Source  string
}

// Keyword is a scored term or phrase extracted from review text.
type Keyword struct {
	Term  string
	Score float64
}

// ReviewRecord is a review enriched by the analysis pipeline.
type ReviewRecord struct {
	ID             string
	GroupID        string
	Text           string
	Rating         int
	Date           string // normalized to YYYY-MM-DD; empty when upstream had none
	Source         string
	SentimentLabel SentimentLabel
	SentimentScore float64
	Keywords       []Keyword // descending score order
	Themes         []string
	IsAnomalous    bool
}
