package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bankpulse/review-insights/internal/models"
	"github.com/bankpulse/review-insights/internal/utils"
)

type stubStrategy struct {
	name   string
	result Result
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Classify(context.Context, string) (Result, error) {
	s.calls++
	return s.result, s.err
}

func TestCascadeUsesFirstSuccessfulStrategy(t *testing.T) {
	primary := &stubStrategy{name: "primary", result: Result{Label: models.SentimentPositive, Score: 0.9}}
	backup := &stubStrategy{name: "backup", result: Result{Label: models.SentimentNegative, Score: 0.8}}

	cascade, err := NewCascade(utils.NewTestLogger(), primary, backup)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}

	result, err := cascade.Classify(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Label != models.SentimentPositive {
		t.Fatalf("label = %q, want Positive", result.Label)
	}
	if backup.calls != 0 {
		t.Fatalf("backup strategy called %d times, want 0", backup.calls)
	}
}

func TestCascadeFallsThroughOnFailure(t *testing.T) {
	primary := &stubStrategy{name: "primary", err: errors.New("model unavailable")}
	backup := &stubStrategy{name: "backup", result: Result{Label: models.SentimentNeutral, Score: 0.5}}

	cascade, err := NewCascade(utils.NewTestLogger(), primary, backup)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}

	result, err := cascade.Classify(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Label != models.SentimentNeutral {
		t.Fatalf("label = %q, want Neutral", result.Label)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Fatalf("call counts primary=%d backup=%d, want 1/1", primary.calls, backup.calls)
	}
}

func TestCascadeAllStrategiesFail(t *testing.T) {
	a := &stubStrategy{name: "a", err: errors.New("down")}
	b := &stubStrategy{name: "b", err: errors.New("also down")}

	cascade, err := NewCascade(utils.NewTestLogger(), a, b)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}

	_, err = cascade.Classify(context.Background(), "anything")
	if !errors.Is(err, ErrAllStrategiesFailed) {
		t.Fatalf("expected ErrAllStrategiesFailed, got %v", err)
	}
}

func TestCascadeRejectsInvalidVerdict(t *testing.T) {
	bogus := &stubStrategy{name: "bogus", result: Result{Label: "Mixed", Score: 0.9}}
	backup := &stubStrategy{name: "backup", result: Result{Label: models.SentimentNegative, Score: 0.7}}

	cascade, err := NewCascade(utils.NewTestLogger(), bogus, backup)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}

	result, err := cascade.Classify(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Label != models.SentimentNegative {
		t.Fatalf("label = %q, want Negative from backup", result.Label)
	}
}

func TestCascadeRequiresStrategies(t *testing.T) {
	if _, err := NewCascade(utils.NewTestLogger()); err == nil {
		t.Fatal("expected error for empty cascade")
	}
}

func TestFromNames(t *testing.T) {
	strategies, err := FromNames([]string{"remote", "lexicon"}, "http://model.local", time.Second)
	if err != nil {
		t.Fatalf("FromNames: %v", err)
	}
	if len(strategies) != 2 || strategies[0].Name() != "remote" || strategies[1].Name() != "lexicon" {
		t.Fatalf("unexpected strategies: %v", strategies)
	}

	if _, err := FromNames([]string{"oracle"}, "", time.Second); err == nil {
		t.Fatal("expected error for unknown strategy name")
	}
}

func TestRemoteStrategyClassify(t *testing.T) {
	strategy := NewRemoteStrategy("http://model.local/classify", time.Second)
	strategy.httpClient = newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/classify" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"label":"Negative","score":0.97}`))),
			Header:     make(http.Header),
		}, nil
	})

	result, err := strategy.Classify(context.Background(), "app crashes constantly")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Label != models.SentimentNegative || result.Score != 0.97 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRemoteStrategyTruncatesOnRuneBoundary(t *testing.T) {
	// 170 three-byte runes = 510 bytes; the next rune straddles the 512-byte
	// limit and must be dropped whole, not split.
	long := strings.Repeat("€", 171)

	var sent string
	strategy := NewRemoteStrategy("http://model.local/classify", time.Second)
	strategy.httpClient = newTestClient(func(req *http.Request) (*http.Response, error) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		sent = payload.Text
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"label":"Neutral","score":0.5}`))),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := strategy.Classify(context.Background(), long); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !utf8.ValidString(sent) {
		t.Fatal("truncated text is not valid UTF-8")
	}
	if len(sent) > maxModelInput {
		t.Fatalf("sent %d bytes, limit is %d", len(sent), maxModelInput)
	}
	if sent != strings.Repeat("€", 170) {
		t.Fatalf("expected 170 whole runes, got %d bytes", len(sent))
	}
}

func TestRemoteStrategyRejectsBadResponses(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error":  {status: http.StatusInternalServerError, body: `{}`},
		"unknown label": {status: http.StatusOK, body: `{"label":"Mixed","score":0.5}`},
		"bad score":     {status: http.StatusOK, body: `{"label":"Positive","score":1.5}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			strategy := NewRemoteStrategy("http://model.local/classify", time.Second)
			strategy.httpClient = newTestClient(func(*http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: tc.status,
					Body:       io.NopCloser(bytes.NewReader([]byte(tc.body))),
					Header:     make(http.Header),
				}, nil
			})
			if _, err := strategy.Classify(context.Background(), "whatever"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRemoteStrategyRequiresEndpoint(t *testing.T) {
	strategy := NewRemoteStrategy("", time.Second)
	if _, err := strategy.Classify(context.Background(), "text"); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
