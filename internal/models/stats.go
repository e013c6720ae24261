package models

// ThemeStat summarises one theme's footprint inside a grouping of reviews.
type ThemeStat struct {
	Theme              string
	MatchedReviews     int
	Frequency          float64 // percent of reviews in the grouping
	NegativeShare      float64 // share of matched reviews labelled Negative
	Severity           Severity
	SupportingKeywords []string
	Representative     []string // review IDs, stable input order
}

// GroupStats aggregates the annotated record set for one group.
// An empty GroupID denotes the global rollup.
type GroupStats struct {
	GroupID           string
	TotalReviews      int
	MeanSentiment     float64
	SentimentCounts   map[SentimentLabel]int
	SentimentPercents map[SentimentLabel]float64
	RatingCounts      map[int]int
	RatingPercents    map[int]float64
	Themes            []ThemeStat
	AnomalousReviews  int
	AnomalyRate       float64

	// Group keyword passes, attached by the pipeline after aggregation.
	Keywords          []Keyword
	ComplaintKeywords []Keyword
	PraiseKeywords    []Keyword
}

// Stats is the full aggregate view over one pipeline run.
// Derived from the record set; never a source of truth on its own.
type Stats struct {
	Groups []GroupStats
	Global GroupStats
}
