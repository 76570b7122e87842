package analysis

import (
	"strings"
	"unicode"

	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// Quality flags raised by the scorer.
const (
	FlagTooShort          = "too_short"
	FlagShortText         = "short_text"
	FlagLongText          = "long_text"
	FlagTooLong           = "too_long"
	FlagLowDiversity      = "low_diversity"
	FlagRepetitiveText    = "repetitive_text"
	FlagSuspiciousChars   = "suspicious_chars"
	FlagMixedChars        = "mixed_chars"
	FlagExcessiveCharRep  = "excessive_char_repetition"
	FlagCharRepetition    = "char_repetition"
	FlagHighToxicity      = "high_toxicity"
	FlagUncertainToxicity = "uncertain_toxicity"
	FlagRatingOnly        = "rating_only"
	FlagEmptyContent      = "empty_content"
)

// QualityScorer computes the weighted quality score over the review text.
// Pure: no I/O, no state beyond the configured weights.
type QualityScorer struct {
	weights config.Weights
}

func NewQualityScorer(weights config.Weights) *QualityScorer {
	return &QualityScorer{weights: weights}
}

// Score evaluates the three raw text fields, the star rating, and the
// pre-computed toxicity status. The returned score is always the weighted
// sum of the per-factor breakdown.
func (s *QualityScorer) Score(enjoyMost, improveProduct, additionalFeedback string, rating int, toxicity models.ToxicityStatus) models.QualityResult {
	parts := make([]string, 0, 3)
	for _, p := range []string{enjoyMost, improveProduct, additionalFeedback} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")

	if len([]rune(text)) < 3 {
		return s.emptyTextResult(rating, toxicity)
	}

	var flags []string
	words := strings.Fields(text)

	length, flags := lengthScore(len(words), flags)
	diversity, flags := diversityScore(words, flags)
	validChars, flags := validCharsScore(text, flags)
	repetition, flags := repetitionScore(text, flags)
	toxScore, flags := toxicityScore(toxicity, flags)

	breakdown := models.ScoresBreakdown{
		Length:     length,
		Diversity:  diversity,
		ValidChars: validChars,
		Repetition: repetition,
		Toxicity:   toxScore,
	}
	score := s.weighted(breakdown)

	return models.QualityResult{
		QualityScore:    score,
		ScoresBreakdown: breakdown,
		Flags:           flags,
		IsSuspicious:    suspicious(score, toxicity, flags),
		ToxicityStatus:  toxicity,
	}
}

// emptyTextResult handles reviews with no usable text. A star rating alone
// is a legitimate (if thin) review; no rating at all is suspicious.
func (s *QualityScorer) emptyTextResult(rating int, toxicity models.ToxicityStatus) models.QualityResult {
	if rating > 0 {
		breakdown := models.ScoresBreakdown{
			Length:     0.2,
			Diversity:  0.2,
			ValidChars: 1.0,
			Repetition: 1.0,
			Toxicity:   1.0,
		}
		return models.QualityResult{
			QualityScore:    s.weighted(breakdown),
			ScoresBreakdown: breakdown,
			Flags:           []string{FlagRatingOnly},
			IsSuspicious:    false,
			ToxicityStatus:  toxicity,
		}
	}
	return models.QualityResult{
		QualityScore:    0.0,
		ScoresBreakdown: models.ScoresBreakdown{},
		Flags:           []string{FlagEmptyContent},
		IsSuspicious:    true,
		ToxicityStatus:  toxicity,
	}
}

func (s *QualityScorer) weighted(b models.ScoresBreakdown) float64 {
	w := s.weights
	return w.Length*b.Length +
		w.Diversity*b.Diversity +
		w.ValidChars*b.ValidChars +
		w.Repetition*b.Repetition +
		w.Toxicity*b.Toxicity
}

func lengthScore(wordCount int, flags []string) (float64, []string) {
	switch {
	case wordCount < 2:
		return 0.1, append(flags, FlagTooShort)
	case wordCount < 5:
		return 0.4, append(flags, FlagShortText)
	case wordCount <= 150:
		return 1.0, flags
	case wordCount <= 300:
		return 0.7, append(flags, FlagLongText)
	default:
		return 0.3, append(flags, FlagTooLong)
	}
}

func diversityScore(words []string, flags []string) (float64, []string) {
	if len(words) < 5 {
		return 0.3, flags
	}
	unique := map[string]struct{}{}
	for _, w := range words {
		unique[w] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(words))
	switch {
	case ratio < 0.25:
		return 0.2, append(flags, FlagLowDiversity)
	case ratio < 0.4:
		return 0.5, append(flags, FlagRepetitiveText)
	case ratio < 0.6:
		return 0.75, flags
	default:
		return 1.0, flags
	}
}

func validCharsScore(text string, flags []string) (float64, []string) {
	total, valid := 0, 0
	for _, r := range text {
		total++
		if isValidChar(r) {
			valid++
		}
	}
	ratio := float64(valid) / float64(total)
	switch {
	case ratio < 0.30:
		return 0.2, append(flags, FlagSuspiciousChars)
	case ratio < 0.60:
		return 0.5, append(flags, FlagMixedChars)
	case ratio < 0.80:
		return 0.75, flags
	default:
		return 1.0, flags
	}
}

func isValidChar(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case unicode.IsDigit(r):
		return true
	case r == ' ':
		return true
	}
	return false
}

// repetitionScore penalizes runs of one repeated character: five or more
// in a row reads as keyboard mashing, exactly four as sloppy emphasis.
func repetitionScore(text string, flags []string) (float64, []string) {
	maxRun, run := 0, 0
	var prev rune = -1
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > maxRun {
			maxRun = run
		}
	}
	switch {
	case maxRun >= 5:
		return 0.3, append(flags, FlagExcessiveCharRep)
	case maxRun == 4:
		return 0.7, append(flags, FlagCharRepetition)
	default:
		return 1.0, flags
	}
}

func toxicityScore(status models.ToxicityStatus, flags []string) (float64, []string) {
	switch status {
	case models.ToxicityToxic:
		return 0.0, append(flags, FlagHighToxicity)
	case models.ToxicityUncertain:
		return 0.5, append(flags, FlagUncertainToxicity)
	default:
		return 1.0, flags
	}
}

func suspicious(score float64, toxicity models.ToxicityStatus, flags []string) bool {
	return score < 0.40 || toxicity == models.ToxicityToxic || len(flags) >= 3
}
