package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

type exportRequest struct {
	Banks    []string `json:"banks"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

type exportReview struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Date   string `json:"date"`
	Bank   string `json:"bank"`
	Source string `json:"source"`
}

type sentimentRequest struct {
	Text string `json:"text"`
}

var sampleReviews = []exportReview{
	{Text: "App crashes every time I open the transfer screen", Rating: 1, Date: "2026-08-12", Bank: "acme-bank", Source: "play-store"},
	{Text: "Transfers take forever to process, very slow lately", Rating: 2, Date: "2026-08-13", Bank: "acme-bank", Source: "play-store"},
	{Text: "Clean interface and quick login, really happy with it", Rating: 5, Date: "2026-08-14", Bank: "acme-bank", Source: "app-store"},
	{Text: "Cannot log in since the last update, keeps saying invalid password", Rating: 1, Date: "2026-08-15", Bank: "acme-bank", Source: "play-store"},
	{Text: "Customer support never responds to my tickets", Rating: 2, Date: "2026-08-15", Bank: "northern-trustline", Source: "app-store"},
	{Text: "Would love a dark mode and spending insights", Rating: 4, Date: "2026-08-16", Bank: "northern-trustline", Source: "play-store"},
	{Text: "Great app, the new budgeting feature is excellent", Rating: 5, Date: "2026-08-17", Bank: "northern-trustline", Source: "app-store"},
	{Text: "Got logged out mid payment and the money disappeared for a day", Rating: 1, Date: "2026-08-18", Bank: "northern-trustline", Source: "play-store"},
}

func main() {
	logger := log.New(log.Writer(), "platform-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9080",
		Handler: logRequests(logger, newMux()),
	}

	logger.Println("listening on :9080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/reviews/export", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.PageSize <= 0 {
			req.PageSize = 500
		}
		// Pages are numbered from 0, matching the ingest client.
		if req.Page < 0 {
			req.Page = 0
		}

		pool := sampleReviews
		if len(req.Banks) > 0 {
			pool = nil
			for _, rev := range sampleReviews {
				for _, bank := range req.Banks {
					if strings.EqualFold(rev.Bank, bank) {
						pool = append(pool, rev)
						break
					}
				}
			}
		}

		start := req.Page * req.PageSize
		if start > len(pool) {
			start = len(pool)
		}
		end := start + req.PageSize
		if end > len(pool) {
			end = len(pool)
		}
		writeJSON(w, map[string]any{
			"reviews":  pool[start:end],
			"has_more": end < len(pool),
		})
	})

	mux.HandleFunc("/api/v1/sentiment", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req sentimentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		label, score := "Neutral", 0.5
		lower := strings.ToLower(req.Text)
		switch {
		case strings.Contains(lower, "crash") || strings.Contains(lower, "slow") || strings.Contains(lower, "cannot"):
			label, score = "Negative", 0.91
		case strings.Contains(lower, "great") || strings.Contains(lower, "love") || strings.Contains(lower, "happy"):
			label, score = "Positive", 0.88
		}
		writeJSON(w, map[string]any{
			"label": label,
			"score": score,
		})
	})

	return mux
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
