package dedup

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bankpulse/review-insights/internal/models"
)

// placeholders are literal strings some export channels emit for missing text.
var placeholders = map[string]struct{}{
	"nan":  {},
	"null": {},
	"n/a":  {},
	"none": {},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Report counts what Clean dropped at each phase.
type Report struct {
	Input             int
	DroppedInvalid    int
	DroppedIntraGroup int
	DroppedCrossGroup int
	Survivors         int
}

// Deduplicator filters invalid reviews and collapses duplicate text within
// and across groups, keeping the first occurrence.
type Deduplicator struct {
	logger        *slog.Logger
	caseSensitive bool
}

func New(logger *slog.Logger, caseSensitive bool) *Deduplicator {
	return &Deduplicator{logger: logger, caseSensitive: caseSensitive}
}

// Clean validates and deduplicates raw reviews, preserving input order.
// Surviving reviews are assigned stable ids and normalized dates.
func (d *Deduplicator) Clean(raws []models.RawReview) ([]models.ReviewRecord, Report) {
	report := Report{Input: len(raws)}

	// Phase 0: validity filter, before any duplicate comparison.
	valid := make([]models.RawReview, 0, len(raws))
	for _, raw := range raws {
		if !d.isValid(raw) {
			report.DroppedInvalid++
			continue
		}
		valid = append(valid, raw)
	}

	// Phase 1: within each group, identical normalized text collapses to the
	// first occurrence.
	type groupKey struct {
		group string
		text  string
	}
	seenInGroup := make(map[groupKey]struct{}, len(valid))
	intra := make([]models.RawReview, 0, len(valid))
	for _, raw := range valid {
		key := groupKey{group: raw.GroupID, text: d.dedupKey(raw.Text)}
		if _, dup := seenInGroup[key]; dup {
			report.DroppedIntraGroup++
			continue
		}
		seenInGroup[key] = struct{}{}
		intra = append(intra, raw)
	}

	// Phase 2: identical text across groups keeps the earliest-seen group.
	seenText := make(map[string]struct{}, len(intra))
	records := make([]models.ReviewRecord, 0, len(intra))
	for _, raw := range intra {
		key := d.dedupKey(raw.Text)
		if _, dup := seenText[key]; dup {
			report.DroppedCrossGroup++
			continue
		}
		seenText[key] = struct{}{}
		records = append(records, models.ReviewRecord{
			ID:      uuid.NewString(),
			GroupID: raw.GroupID,
			Text:    strings.TrimSpace(raw.Text),
			Rating:  raw.Rating,
			Date:    normalizeDate(raw.Date),
			Source:  raw.Source,
		})
	}

	report.Survivors = len(records)
	d.logger.Debug("cleaned review batch",
		"input", report.Input,
		"invalid", report.DroppedInvalid,
		"intra_group", report.DroppedIntraGroup,
		"cross_group", report.DroppedCrossGroup,
		"survivors", report.Survivors,
	)
	return records, report
}

func (d *Deduplicator) isValid(raw models.RawReview) bool {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return false
	}
	if _, bad := placeholders[strings.ToLower(text)]; bad {
		return false
	}
	if raw.GroupID == "" {
		return false
	}
	if raw.Rating < 1 || raw.Rating > 5 {
		return false
	}
	return true
}

func (d *Deduplicator) dedupKey(text string) string {
	key := strings.Join(strings.Fields(text), " ")
	if !d.caseSensitive {
		key = strings.ToLower(key)
	}
	return key
}

// normalizeDate converts known date layouts to YYYY-MM-DD. Unparseable values
// pass through unchanged and absent dates stay absent.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
