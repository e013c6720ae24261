package themes

import (
	"strings"

	"github.com/bankpulse/review-insights/internal/models"
)

// Thresholds tune severity grading. Frequency is a percentage (0-100),
// negative shares are fractions (0-1).
type Thresholds struct {
	NegativeMedium float64
	NegativeHigh   float64
	FrequencyHigh  float64
}

// Mapper assigns taxonomy themes to reviews via keyword triggers and grades
// per-theme severity from frequency and sentiment mix.
type Mapper struct {
	taxonomy        []ThemeDefinition
	thresholds      Thresholds
	representatives int
}

func NewMapper(taxonomy []ThemeDefinition, thresholds Thresholds, representatives int) *Mapper {
	if representatives <= 0 {
		representatives = 5
	}
	return &Mapper{taxonomy: taxonomy, thresholds: thresholds, representatives: representatives}
}

// MatchRecord returns the themes whose triggers intersect the review's
// keywords, in taxonomy order. Zero matches is a valid outcome.
func (m *Mapper) MatchRecord(kws []models.Keyword) []string {
	var matched []string
	for _, theme := range m.taxonomy {
		if themeMatches(theme, kws) {
			matched = append(matched, theme.Name)
		}
	}
	return matched
}

// GroupThemes computes per-theme stats over an annotated record set.
// Themes no review matched are omitted.
func (m *Mapper) GroupThemes(records []models.ReviewRecord) []models.ThemeStat {
	total := len(records)
	if total == 0 {
		return nil
	}

	var stats []models.ThemeStat
	for _, theme := range m.taxonomy {
		var (
			matched    int
			negative   int
			reps       []string
			supporting []string
			seenTerms  = make(map[string]struct{})
		)
		for _, rec := range records {
			if !containsTheme(rec.Themes, theme.Name) {
				continue
			}
			matched++
			if rec.SentimentLabel == models.SentimentNegative {
				negative++
			}
			if len(reps) < m.representatives {
				reps = append(reps, rec.ID)
			}
			for _, kw := range rec.Keywords {
				if !keywordTriggers(theme, kw.Term) {
					continue
				}
				if _, dup := seenTerms[kw.Term]; dup {
					continue
				}
				seenTerms[kw.Term] = struct{}{}
				supporting = append(supporting, kw.Term)
			}
		}
		if matched == 0 {
			continue
		}

		freq := 100 * float64(matched) / float64(total)
		negShare := float64(negative) / float64(matched)
		stats = append(stats, models.ThemeStat{
			Theme:              theme.Name,
			MatchedReviews:     matched,
			Frequency:          freq,
			NegativeShare:      negShare,
			Severity:           m.GradeSeverity(freq, negShare),
			SupportingKeywords: supporting,
			Representative:     reps,
		})
	}
	return stats
}

// GradeSeverity maps (frequency %, negative share) to a severity grade.
// Monotonic in both inputs: more frequency or more negativity never lowers
// the grade.
func (m *Mapper) GradeSeverity(freqPct, negShare float64) models.Severity {
	highNeg := negShare >= m.thresholds.NegativeHigh
	medNeg := negShare >= m.thresholds.NegativeMedium
	highFreq := freqPct >= m.thresholds.FrequencyHigh

	switch {
	case highNeg && highFreq:
		return models.SeverityCritical
	case highNeg || (medNeg && highFreq):
		return models.SeverityHigh
	case medNeg || highFreq:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func themeMatches(theme ThemeDefinition, kws []models.Keyword) bool {
	for _, kw := range kws {
		if keywordTriggers(theme, kw.Term) {
			return true
		}
	}
	return false
}

// keywordTriggers reports whether a keyword phrase contains one of the
// theme's triggers as a whole-word sequence. Whole words only, so "add"
// does not fire on "address".
func keywordTriggers(theme ThemeDefinition, term string) bool {
	words := strings.Fields(term)
	for _, trigger := range theme.Triggers {
		if containsSequence(words, strings.Fields(trigger)) {
			return true
		}
	}
	return false
}

func containsSequence(words, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(words) {
		return false
	}
outer:
	for start := 0; start+len(seq) <= len(words); start++ {
		for i, want := range seq {
			if words[start+i] != want {
				continue outer
			}
		}
		return true
	}
	return false
}

func containsTheme(themes []string, name string) bool {
	for _, t := range themes {
		if t == name {
			return true
		}
	}
	return false
}
