package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/bankpulse/review-insights/internal/models"
)

// maxModelInput bounds the text sent to the model service; transformer
// models truncate anyway, so longer payloads are wasted bandwidth.
const maxModelInput = 512

// RemoteStrategy delegates classification to an external model service over
// HTTP. A short client timeout makes an unavailable service fail fast so the
// cascade can fall through instead of stalling the batch.
type RemoteStrategy struct {
	endpoint   string
	httpClient *http.Client
}

// NewRemoteStrategy constructs a strategy targeting the configured model
// service endpoint.
func NewRemoteStrategy(endpoint string, timeout time.Duration) *RemoteStrategy {
	return &RemoteStrategy{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Classify(ctx context.Context, text string) (Result, error) {
	if s.endpoint == "" {
		return Result{}, fmt.Errorf("model endpoint not configured")
	}

	text = truncate(text, maxModelInput)

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("model service returned %s", resp.Status)
	}

	var decoded struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	label := models.SentimentLabel(decoded.Label)
	if !label.Valid() {
		return Result{}, fmt.Errorf("model service returned unknown label %q", decoded.Label)
	}
	if decoded.Score < 0 || decoded.Score > 1 {
		return Result{}, fmt.Errorf("model service returned score %v out of range", decoded.Score)
	}
	return Result{Label: label, Score: decoded.Score}, nil
}

// truncate cuts text to at most limit bytes without splitting a UTF-8 rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
