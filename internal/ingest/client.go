package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bankpulse/review-insights/internal/cache"
	"github.com/bankpulse/review-insights/internal/models"
)

// maxPages caps pagination so a misbehaving upstream that always reports
// more data cannot spin the fetch forever.
const maxPages = 1000

// Client pulls raw reviews from the review platform's export API, page by
// page. Pages are cached when a cache provider is supplied, so repeated
// analysis runs within the TTL do not re-hit the rate-limited upstream.
type Client struct {
	baseURL     string
	reviewsPath string
	pageSize    int
	httpClient  *http.Client
	cache       cache.Provider
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewClient constructs a client for the configured platform instance.
func NewClient(baseURL, reviewsPath string, pageSize int, timeout time.Duration, provider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if pageSize <= 0 {
		pageSize = 500
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		reviewsPath: reviewsPath,
		pageSize:    pageSize,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       provider,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

type exportPage struct {
	Reviews []struct {
		Text   string `json:"text"`
		Rating int    `json:"rating"`
		Date   string `json:"date"`
		Bank   string `json:"bank"`
		Source string `json:"source"`
	} `json:"reviews"`
	HasMore bool `json:"has_more"`
}

// FetchReviews retrieves all reviews for the given groups, following
// pagination until the upstream reports no more data. An empty groups slice
// fetches every group the platform knows.
func (c *Client) FetchReviews(ctx context.Context, groups []string) ([]models.RawReview, error) {
	if c.baseURL == "" {
		return nil, errors.New("ingest base URL not configured")
	}

	var all []models.RawReview
	for page := 0; page < maxPages; page++ {
		data, err := c.fetchPage(ctx, groups, page)
		if err != nil {
			return nil, fmt.Errorf("ingest page %d: %w", page, err)
		}

		var decoded exportPage
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("decode ingest page %d: %w", page, err)
		}
		for _, r := range decoded.Reviews {
			all = append(all, models.RawReview{
				Text:    r.Text,
				Rating:  r.Rating,
				Date:    r.Date,
				GroupID: r.Bank,
				Source:  r.Source,
			})
		}
		if !decoded.HasMore {
			break
		}
	}

	c.logger.Info("fetched reviews from platform", "groups", len(groups), "reviews", len(all))
	return all, nil
}

// fetchPage returns the raw JSON body for one page, via cache when fresh.
func (c *Client) fetchPage(ctx context.Context, groups []string, page int) ([]byte, error) {
	key := c.cacheKey(groups, page)
	if data, err := c.cache.Get(ctx, key); err == nil {
		return data, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("ingest cache read failed", "key", key, "error", err)
	}

	payload := map[string]any{
		"banks":     groups,
		"page":      page,
		"page_size": c.pageSize,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.exportURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform returned %s", resp.Status)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	data := buf.Bytes()

	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("ingest cache write failed", "key", key, "error", err)
		}
	}
	return data, nil
}

func (c *Client) cacheKey(groups []string, page int) string {
	scope := "all"
	if len(groups) > 0 {
		scope = strings.Join(groups, ",")
	}
	return fmt.Sprintf("ingest:%s:page:%d:size:%d", scope, page, c.pageSize)
}

func (c *Client) exportURL() string {
	cleaned := "/" + strings.TrimLeft(c.reviewsPath, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}
