package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bankpulse/review-insights/internal/cache"
	"github.com/bankpulse/review-insights/internal/utils"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func pageResponse(t *testing.T, texts []string, hasMore bool) *http.Response {
	t.Helper()
	reviews := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		reviews = append(reviews, map[string]any{
			"text": text, "rating": 4, "date": "2025-06-01", "bank": "alpha-bank", "source": "app-store",
		})
	}
	data, err := json.Marshal(map[string]any{"reviews": reviews, "has_more": hasMore})
	if err != nil {
		t.Fatalf("marshal page: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestFetchReviewsFollowsPagination(t *testing.T) {
	client := NewClient("https://platform.example.com", "/api/v1/reviews/export", 2,
		time.Second, nil, 0, utils.NewTestLogger())

	pages := [][]string{{"first", "second"}, {"third"}}
	calls := 0
	client.httpClient = newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/reviews/export" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		var payload struct {
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Page != calls || payload.PageSize != 2 {
			t.Fatalf("unexpected pagination %+v on call %d", payload, calls)
		}
		resp := pageResponse(t, pages[calls], calls < len(pages)-1)
		calls++
		return resp, nil
	})

	reviews, err := client.FetchReviews(context.Background(), []string{"alpha-bank"})
	if err != nil {
		t.Fatalf("FetchReviews: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 page fetches, got %d", calls)
	}
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(reviews))
	}
	if reviews[0].Text != "first" || reviews[2].Text != "third" {
		t.Fatalf("unexpected review order: %+v", reviews)
	}
	if reviews[0].GroupID != "alpha-bank" || reviews[0].Source != "app-store" {
		t.Fatalf("fields not mapped: %+v", reviews[0])
	}
}

func TestFetchReviewsUsesCache(t *testing.T) {
	provider := cache.NewMemoryProvider()
	client := NewClient("https://platform.example.com", "/export", 10,
		time.Second, provider, time.Minute, utils.NewTestLogger())

	hits := 0
	client.httpClient = newTestClient(func(*http.Request) (*http.Response, error) {
		hits++
		return pageResponse(t, []string{"cached review"}, false), nil
	})

	ctx := context.Background()
	if _, err := client.FetchReviews(ctx, nil); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream request, got %d", hits)
	}

	reviews, err := client.FetchReviews(ctx, nil)
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered upstream call; hits=%d", hits)
	}
	if len(reviews) != 1 || reviews[0].Text != "cached review" {
		t.Fatalf("unexpected cached payload: %+v", reviews)
	}
}

func TestFetchReviewsRequiresBaseURL(t *testing.T) {
	client := NewClient("", "/export", 10, time.Second, nil, 0, utils.NewTestLogger())
	if _, err := client.FetchReviews(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestFetchReviewsUpstreamError(t *testing.T) {
	client := NewClient("https://platform.example.com", "/export", 10,
		time.Second, nil, 0, utils.NewTestLogger())
	client.httpClient = newTestClient(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	})
	if _, err := client.FetchReviews(context.Background(), nil); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
