package models

import "time"

// AnalyzeRequest triggers one batch analysis run.
// Reviews may be supplied inline; Fetch pulls them from the ingestion
// collaborator instead (optionally restricted to Groups).
type AnalyzeRequest struct {
	Reviews []RawReview
	Fetch   bool
	Groups  []string
}

// RecordFailure describes a review the pipeline could not classify.
type RecordFailure struct {
	ID      string
	GroupID string
	Reason  string
}

// RunSummary captures the bookkeeping of one pipeline run.
type RunSummary struct {
	RunID             string
	StartedAt         time.Time
	Duration          time.Duration
	InputReviews      int
	DroppedInvalid    int
	DroppedIntraGroup int
	DroppedCrossGroup int
	FailedRecords     int
	AnalyzedReviews   int
	SentimentCoverage float64 // percent of surviving reviews classified
	AnomalyRate       float64
}

// AnalysisResult is the complete output of one pipeline run.
type AnalysisResult struct {
	Summary  RunSummary
	Records  []ReviewRecord
	Failures []RecordFailure
	Stats    Stats
}
