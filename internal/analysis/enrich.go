package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// Text shorter than this goes straight to the deterministic template;
// a model call on a few characters buys nothing.
const enrichMinChars = 15

// ChatCompleter is the slice of the model adapter the enricher needs.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Enricher produces the AI-generated summary, key themes, actionable
// insights, and suggested reply via one JSON-constrained completion.
// It always returns usable content: trivial input takes a deterministic
// template and model failure takes a canned fallback.
type Enricher struct {
	chat   ChatCompleter
	res    *lang.Resources
	logger zerolog.Logger
}

func NewEnricher(chat ChatCompleter, res *lang.Resources, logger zerolog.Logger) *Enricher {
	return &Enricher{
		chat:   chat,
		res:    res,
		logger: logger.With().Str("component", "enricher").Logger(),
	}
}

func (e *Enricher) Enrich(ctx context.Context, input models.EnrichmentInput) models.Enrichment {
	if len([]rune(strings.TrimSpace(input.Text))) < enrichMinChars {
		return e.ratingOnly(input.Rating)
	}

	enrichment, err := e.complete(ctx, input)
	if err != nil {
		e.logger.Warn().Err(err).Msg("enrichment failed, using fallback")
		return e.fallback(input)
	}
	return enrichment
}

// complete calls the chat endpoint and parses the JSON output, retrying
// once more when the call or the parse fails.
func (e *Enricher) complete(ctx context.Context, input models.EnrichmentInput) (models.Enrichment, error) {
	prompt := fmt.Sprintf(e.res.Enrichment.UserPromptFormat,
		input.ShopType,
		input.Text,
		input.Rating,
		input.Sentiment,
		input.Toxicity,
	)

	var enrichment models.Enrichment
	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		content, err := e.chat.ChatCompletion(ctx, e.res.Enrichment.SystemPrompt, prompt)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed, err := e.parse(content, input)
		if err != nil {
			return retry.RetryableError(err)
		}
		enrichment = parsed
		return nil
	})
	return enrichment, err
}

func (e *Enricher) parse(content string, input models.EnrichmentInput) (models.Enrichment, error) {
	var out struct {
		Category           string   `json:"category"`
		Summary            string   `json:"summary"`
		KeyThemes          []string `json:"key_themes"`
		ActionableInsights []string `json:"actionable_insights"`
		SuggestedReply     string   `json:"suggested_reply"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return models.Enrichment{}, fmt.Errorf("parse enrichment output: %w", err)
	}
	if out.Summary == "" || out.SuggestedReply == "" {
		return models.Enrichment{}, fmt.Errorf("enrichment output missing summary or reply")
	}

	return models.Enrichment{
		Category:           e.mapCategory(out.Category, input),
		Summary:            out.Summary,
		KeyThemes:          out.KeyThemes,
		ActionableInsights: out.ActionableInsights,
		SuggestedReply:     out.SuggestedReply,
	}, nil
}

// mapCategory resolves the model's category value, which may be the Arabic
// label from the prompt or the English value directly. Anything else falls
// back to the deterministic sentiment+rating mapping.
func (e *Enricher) mapCategory(raw string, input models.EnrichmentInput) models.Category {
	raw = strings.TrimSpace(raw)
	if english, ok := e.res.Enrichment.Categories[raw]; ok {
		return models.Category(english)
	}
	switch models.Category(strings.ToLower(raw)) {
	case models.CategoryComplaint, models.CategoryCriticism, models.CategoryPraise,
		models.CategorySuggestion, models.CategoryInquiry:
		return models.Category(strings.ToLower(raw))
	}
	return fallbackCategory(input.Sentiment, input.Rating)
}

// ratingOnly synthesizes content for reviews that are effectively just a
// star rating.
func (e *Enricher) ratingOnly(rating int) models.Enrichment {
	stars := strings.Repeat("⭐", rating)
	if rating == 0 {
		stars = e.res.Enrichment.RatingOnlyNoStars
	}
	return models.Enrichment{
		Category:           ratingCategory(rating),
		Summary:            fmt.Sprintf(e.res.Enrichment.RatingOnlySummaryFormat, stars),
		KeyThemes:          []string{},
		ActionableInsights: []string{},
		SuggestedReply:     e.res.Enrichment.RatingOnlyReply,
	}
}

func (e *Enricher) fallback(input models.EnrichmentInput) models.Enrichment {
	return models.Enrichment{
		Category:           fallbackCategory(input.Sentiment, input.Rating),
		Summary:            e.res.Enrichment.FallbackSummary,
		KeyThemes:          []string{},
		ActionableInsights: []string{},
		SuggestedReply:     e.res.Enrichment.FallbackReply,
	}
}

func ratingCategory(rating int) models.Category {
	switch {
	case rating >= 4:
		return models.CategoryPraise
	case rating <= 2:
		return models.CategoryComplaint
	default:
		return models.CategoryNeutral
	}
}

func fallbackCategory(sentiment models.Sentiment, rating int) models.Category {
	switch sentiment {
	case models.SentimentNegative:
		return models.CategoryComplaint
	case models.SentimentPositive:
		return models.CategoryPraise
	default:
		return ratingCategory(rating)
	}
}
