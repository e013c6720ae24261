package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/bankpulse/review-insights/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL,
	input_reviews INTEGER NOT NULL,
	dropped_invalid INTEGER NOT NULL,
	dropped_intra_group INTEGER NOT NULL,
	dropped_cross_group INTEGER NOT NULL,
	failed_records INTEGER NOT NULL,
	analyzed_reviews INTEGER NOT NULL,
	sentiment_coverage REAL NOT NULL,
	anomaly_rate REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	group_id TEXT NOT NULL,
	text TEXT NOT NULL,
	rating INTEGER NOT NULL,
	review_date TEXT,
	source TEXT,
	sentiment_label TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	keywords TEXT NOT NULL,
	themes TEXT NOT NULL,
	is_anomalous BOOLEAN NOT NULL DEFAULT 0,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run ON reviews(run_id);
CREATE INDEX IF NOT EXISTS idx_reviews_group ON reviews(group_id);
CREATE INDEX IF NOT EXISTS idx_reviews_anomalous ON reviews(is_anomalous);
`

// SQLiteStore persists run summaries and annotated reviews.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("review store ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveRun persists one run's summary and all of its records atomically.
func (s *SQLiteStore) SaveRun(ctx context.Context, summary models.RunSummary, records []models.ReviewRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	insertRun := sq.Insert("runs").Columns(
		"run_id", "started_at", "duration_ms", "input_reviews",
		"dropped_invalid", "dropped_intra_group", "dropped_cross_group",
		"failed_records", "analyzed_reviews", "sentiment_coverage", "anomaly_rate",
	).Values(
		summary.RunID, summary.StartedAt.UTC(), summary.Duration.Milliseconds(),
		summary.InputReviews, summary.DroppedInvalid, summary.DroppedIntraGroup,
		summary.DroppedCrossGroup, summary.FailedRecords, summary.AnalyzedReviews,
		summary.SentimentCoverage, summary.AnomalyRate,
	)
	query, args, err := insertRun.ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, rec := range records {
		keywords, err := json.Marshal(rec.Keywords)
		if err != nil {
			return fmt.Errorf("marshal keywords for %s: %w", rec.ID, err)
		}
		themes, err := json.Marshal(rec.Themes)
		if err != nil {
			return fmt.Errorf("marshal themes for %s: %w", rec.ID, err)
		}

		insertReview := sq.Insert("reviews").Columns(
			"id", "run_id", "group_id", "text", "rating", "review_date", "source",
			"sentiment_label", "sentiment_score", "keywords", "themes", "is_anomalous",
		).Values(
			rec.ID, summary.RunID, rec.GroupID, rec.Text, rec.Rating, rec.Date, rec.Source,
			string(rec.SentimentLabel), rec.SentimentScore, string(keywords), string(themes), rec.IsAnomalous,
		)
		query, args, err := insertReview.ToSql()
		if err != nil {
			return fmt.Errorf("build review insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert review %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	s.logger.Debug("run persisted", "run_id", summary.RunID, "reviews", len(records))
	return nil
}

// Filter narrows ListReviews results. Zero values match everything.
type Filter struct {
	RunID         string
	GroupID       string
	AnomalousOnly bool
	Limit         int
}

// ListReviews returns stored reviews matching the filter, newest run first,
// stable by id within a run. Run IDs are random, so recency comes from the
// run's started_at, not the id.
func (s *SQLiteStore) ListReviews(ctx context.Context, filter Filter) ([]models.ReviewRecord, error) {
	builder := sq.Select(
		"reviews.id", "reviews.group_id", "reviews.text", "reviews.rating",
		"reviews.review_date", "reviews.source", "reviews.sentiment_label",
		"reviews.sentiment_score", "reviews.keywords", "reviews.themes",
		"reviews.is_anomalous",
	).From("reviews").
		Join("runs ON runs.run_id = reviews.run_id").
		OrderBy("runs.started_at DESC", "reviews.id ASC")

	if filter.RunID != "" {
		builder = builder.Where(sq.Eq{"reviews.run_id": filter.RunID})
	}
	if filter.GroupID != "" {
		builder = builder.Where(sq.Eq{"group_id": filter.GroupID})
	}
	if filter.AnomalousOnly {
		builder = builder.Where(sq.Eq{"is_anomalous": true})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var records []models.ReviewRecord
	for rows.Next() {
		var (
			rec      models.ReviewRecord
			label    string
			keywords string
			themes   string
			date     sql.NullString
			source   sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.GroupID, &rec.Text, &rec.Rating, &date, &source,
			&label, &rec.SentimentScore, &keywords, &themes, &rec.IsAnomalous,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rec.Date = date.String
		rec.Source = source.String
		rec.SentimentLabel = models.SentimentLabel(label)
		if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords for %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(themes), &rec.Themes); err != nil {
			return nil, fmt.Errorf("decode themes for %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return records, nil
}

// LatestSummary returns the most recent run's summary, or sql.ErrNoRows
// when no run has been persisted yet.
func (s *SQLiteStore) LatestSummary(ctx context.Context) (models.RunSummary, error) {
	query, args, err := sq.Select(
		"run_id", "started_at", "duration_ms", "input_reviews",
		"dropped_invalid", "dropped_intra_group", "dropped_cross_group",
		"failed_records", "analyzed_reviews", "sentiment_coverage", "anomaly_rate",
	).From("runs").OrderBy("started_at DESC").Limit(1).ToSql()
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("build summary query: %w", err)
	}

	var (
		summary    models.RunSummary
		durationMS int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.RunID, &summary.StartedAt, &durationMS, &summary.InputReviews,
		&summary.DroppedInvalid, &summary.DroppedIntraGroup, &summary.DroppedCrossGroup,
		&summary.FailedRecords, &summary.AnalyzedReviews, &summary.SentimentCoverage,
		&summary.AnomalyRate,
	)
	if err != nil {
		return models.RunSummary{}, err
	}
	summary.Duration = time.Duration(durationMS) * time.Millisecond
	return summary, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
