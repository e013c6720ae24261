package api

import (
	"time"

	"github.com/bankpulse/review-insights/internal/models"
)

// Wire shapes for the HTTP API. Kept separate from the domain models so the
// JSON contract can evolve without touching the pipeline.

type rawReviewDTO struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Date   string `json:"date,omitempty"`
	Bank   string `json:"bank"`
	Source string `json:"source,omitempty"`
}

type analyzeRequestDTO struct {
	Reviews []rawReviewDTO `json:"reviews,omitempty"`
	Fetch   bool           `json:"fetch,omitempty"`
	Groups  []string       `json:"groups,omitempty"`
}

type keywordDTO struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

type reviewRecordDTO struct {
	ID             string       `json:"id"`
	Bank           string       `json:"bank"`
	Text           string       `json:"text"`
	Rating         int          `json:"rating"`
	Date           string       `json:"date,omitempty"`
	Source         string       `json:"source,omitempty"`
	SentimentLabel string       `json:"sentiment_label"`
	SentimentScore float64      `json:"sentiment_score"`
	Keywords       []keywordDTO `json:"keywords"`
	Themes         []string     `json:"themes"`
	IsAnomalous    bool         `json:"is_anomalous"`
}

type recordFailureDTO struct {
	ID     string `json:"id"`
	Bank   string `json:"bank"`
	Reason string `json:"reason"`
}

type runSummaryDTO struct {
	RunID             string    `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	DurationMS        int64     `json:"duration_ms"`
	InputReviews      int       `json:"input_reviews"`
	DroppedInvalid    int       `json:"dropped_invalid"`
	DroppedIntraGroup int       `json:"dropped_intra_group"`
	DroppedCrossGroup int       `json:"dropped_cross_group"`
	FailedRecords     int       `json:"failed_records"`
	AnalyzedReviews   int       `json:"analyzed_reviews"`
	SentimentCoverage float64   `json:"sentiment_coverage"`
	AnomalyRate       float64   `json:"anomaly_rate"`
}

type themeStatDTO struct {
	Theme              string   `json:"theme"`
	MatchedReviews     int      `json:"matched_reviews"`
	Frequency          float64  `json:"frequency"`
	NegativeShare      float64  `json:"negative_share"`
	Severity           string   `json:"severity"`
	SupportingKeywords []string `json:"supporting_keywords,omitempty"`
	Representative     []string `json:"representative_reviews,omitempty"`
}

type groupStatsDTO struct {
	Bank              string             `json:"bank,omitempty"`
	TotalReviews      int                `json:"total_reviews"`
	MeanSentiment     float64            `json:"mean_sentiment"`
	SentimentCounts   map[string]int     `json:"sentiment_counts"`
	SentimentPercents map[string]float64 `json:"sentiment_percents"`
	RatingCounts      map[int]int        `json:"rating_counts"`
	RatingPercents    map[int]float64    `json:"rating_percents"`
	Themes            []themeStatDTO     `json:"themes,omitempty"`
	AnomalousReviews  int                `json:"anomalous_reviews"`
	AnomalyRate       float64            `json:"anomaly_rate"`
	Keywords          []keywordDTO       `json:"keywords,omitempty"`
	ComplaintKeywords []keywordDTO       `json:"complaint_keywords,omitempty"`
	PraiseKeywords    []keywordDTO       `json:"praise_keywords,omitempty"`
}

type statsDTO struct {
	Groups []groupStatsDTO `json:"groups"`
	Global groupStatsDTO   `json:"global"`
}

type analyzeResponseDTO struct {
	Summary  runSummaryDTO      `json:"summary"`
	Records  []reviewRecordDTO  `json:"records"`
	Failures []recordFailureDTO `json:"failures,omitempty"`
	Stats    statsDTO           `json:"stats"`
}

func fromRawReviewDTO(dto rawReviewDTO) models.RawReview {
	return models.RawReview{
		Text:    dto.Text,
		Rating:  dto.Rating,
		Date:    dto.Date,
		GroupID: dto.Bank,
		Source:  dto.Source,
	}
}

func toAnalyzeRequest(dto analyzeRequestDTO) models.AnalyzeRequest {
	req := models.AnalyzeRequest{Fetch: dto.Fetch, Groups: dto.Groups}
	for _, r := range dto.Reviews {
		req.Reviews = append(req.Reviews, fromRawReviewDTO(r))
	}
	return req
}

func toKeywordDTOs(kws []models.Keyword) []keywordDTO {
	out := make([]keywordDTO, 0, len(kws))
	for _, kw := range kws {
		out = append(out, keywordDTO{Term: kw.Term, Score: kw.Score})
	}
	return out
}

func toReviewRecordDTO(rec models.ReviewRecord) reviewRecordDTO {
	return reviewRecordDTO{
		ID:             rec.ID,
		Bank:           rec.GroupID,
		Text:           rec.Text,
		Rating:         rec.Rating,
		Date:           rec.Date,
		Source:         rec.Source,
		SentimentLabel: string(rec.SentimentLabel),
		SentimentScore: rec.SentimentScore,
		Keywords:       toKeywordDTOs(rec.Keywords),
		Themes:         rec.Themes,
		IsAnomalous:    rec.IsAnomalous,
	}
}

func toRunSummaryDTO(summary models.RunSummary) runSummaryDTO {
	return runSummaryDTO{
		RunID:             summary.RunID,
		StartedAt:         summary.StartedAt,
		DurationMS:        summary.Duration.Milliseconds(),
		InputReviews:      summary.InputReviews,
		DroppedInvalid:    summary.DroppedInvalid,
		DroppedIntraGroup: summary.DroppedIntraGroup,
		DroppedCrossGroup: summary.DroppedCrossGroup,
		FailedRecords:     summary.FailedRecords,
		AnalyzedReviews:   summary.AnalyzedReviews,
		SentimentCoverage: summary.SentimentCoverage,
		AnomalyRate:       summary.AnomalyRate,
	}
}

func toThemeStatDTO(stat models.ThemeStat) themeStatDTO {
	return themeStatDTO{
		Theme:              stat.Theme,
		MatchedReviews:     stat.MatchedReviews,
		Frequency:          stat.Frequency,
		NegativeShare:      stat.NegativeShare,
		Severity:           string(stat.Severity),
		SupportingKeywords: stat.SupportingKeywords,
		Representative:     stat.Representative,
	}
}

func toGroupStatsDTO(gs models.GroupStats) groupStatsDTO {
	dto := groupStatsDTO{
		Bank:              gs.GroupID,
		TotalReviews:      gs.TotalReviews,
		MeanSentiment:     gs.MeanSentiment,
		SentimentCounts:   make(map[string]int, len(gs.SentimentCounts)),
		SentimentPercents: make(map[string]float64, len(gs.SentimentPercents)),
		RatingCounts:      gs.RatingCounts,
		RatingPercents:    gs.RatingPercents,
		AnomalousReviews:  gs.AnomalousReviews,
		AnomalyRate:       gs.AnomalyRate,
		Keywords:          toKeywordDTOs(gs.Keywords),
		ComplaintKeywords: toKeywordDTOs(gs.ComplaintKeywords),
		PraiseKeywords:    toKeywordDTOs(gs.PraiseKeywords),
	}
	for label, count := range gs.SentimentCounts {
		dto.SentimentCounts[string(label)] = count
	}
	for label, pct := range gs.SentimentPercents {
		dto.SentimentPercents[string(label)] = pct
	}
	for _, theme := range gs.Themes {
		dto.Themes = append(dto.Themes, toThemeStatDTO(theme))
	}
	return dto
}

func toAnalyzeResponseDTO(result *models.AnalysisResult) analyzeResponseDTO {
	resp := analyzeResponseDTO{
		Summary: toRunSummaryDTO(result.Summary),
		Records: make([]reviewRecordDTO, 0, len(result.Records)),
		Stats:   statsDTO{Global: toGroupStatsDTO(result.Stats.Global)},
	}
	for _, rec := range result.Records {
		resp.Records = append(resp.Records, toReviewRecordDTO(rec))
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, recordFailureDTO{
			ID: failure.ID, Bank: failure.GroupID, Reason: failure.Reason,
		})
	}
	resp.Stats.Groups = make([]groupStatsDTO, 0, len(result.Stats.Groups))
	for _, gs := range result.Stats.Groups {
		resp.Stats.Groups = append(resp.Stats.Groups, toGroupStatsDTO(gs))
	}
	return resp
}
