package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of a persisted review document.
type Status string

const (
	StatusProcessed          Status = "processed"
	StatusRejectedLowQuality Status = "rejected_low_quality"
	StatusRejectedIrrelevant Status = "rejected_irrelevant"
)

// ToxicityStatus is the three-way verdict of the toxicity classifier.
type ToxicityStatus string

const (
	ToxicityToxic     ToxicityStatus = "toxic"
	ToxicityNonToxic  ToxicityStatus = "non-toxic"
	ToxicityUncertain ToxicityStatus = "uncertain"
)

// Sentiment is the normalized three-way sentiment label.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Category classifies what kind of feedback a review is. The five model
// categories come from the enrichment prompt; neutral is produced only by
// the deterministic rating-only path.
type Category string

const (
	CategoryComplaint  Category = "complaint"
	CategoryCriticism  Category = "criticism"
	CategoryPraise     Category = "praise"
	CategorySuggestion Category = "suggestion"
	CategoryInquiry    Category = "inquiry"
	CategoryNeutral    Category = "neutral"
)

// Shop is the identity record reviews are scoped to. Registration and auth
// live outside this service; the pipeline only reads shops and the Telegram
// linking webhook updates chat_id.
type Shop struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	ShopName       string    `json:"shop_name" db:"shop_name"`
	ShopType       string    `json:"shop_type" db:"shop_type"`
	PushToken      string    `json:"push_token" db:"push_token"`
	TelegramChatID string    `json:"telegram_chat_id" db:"telegram_chat_id"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Source preserves what the webhook delivered: the star rating and every
// labeled field verbatim.
type Source struct {
	Rating int            `json:"rating"`
	Fields map[string]any `json:"fields"`
}

// Processing carries the derived text the classifiers ran on.
type Processing struct {
	ConcatenatedText string `json:"concatenated_text"`
	IsProfane        bool   `json:"is_profane"`
}

// ScoresBreakdown holds the per-factor quality values, each in [0,1].
type ScoresBreakdown struct {
	Length     float64 `json:"length"`
	Diversity  float64 `json:"diversity"`
	ValidChars float64 `json:"valid_chars"`
	Repetition float64 `json:"repetition"`
	Toxicity   float64 `json:"toxicity"`
}

// QualityResult is the quality scorer's verdict, embedded into analysis.quality.
type QualityResult struct {
	QualityScore    float64         `json:"quality_score"`
	ScoresBreakdown ScoresBreakdown `json:"scores_breakdown"`
	Flags           []string        `json:"flags"`
	IsSuspicious    bool            `json:"is_suspicious"`
	ToxicityStatus  ToxicityStatus  `json:"toxicity_status"`
}

// HasFlag reports whether the scorer raised the given flag.
func (q QualityResult) HasFlag(flag string) bool {
	for _, f := range q.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ContextResult is the relevancy classifier's verdict, embedded into
// analysis.context on rejected_irrelevant documents.
type ContextResult struct {
	HasMismatch   bool    `json:"has_mismatch"`
	DetectedLabel string  `json:"detected_label"`
	TopScore      float64 `json:"top_score"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason,omitempty"`
}

// Analysis grows by status: rejected_low_quality carries only Quality,
// rejected_irrelevant adds Context, processed adds the enrichment keys.
// Use the ReviewDocument constructors rather than filling this directly.
type Analysis struct {
	Quality   QualityResult  `json:"quality"`
	Context   *ContextResult `json:"context,omitempty"`
	Sentiment Sentiment      `json:"sentiment,omitempty"`
	Toxicity  ToxicityStatus `json:"toxicity,omitempty"`
	Category  Category       `json:"category,omitempty"`
	KeyThemes []string       `json:"key_themes,omitempty"`
}

// GeneratedContent is present only on processed documents.
type GeneratedContent struct {
	Summary            string   `json:"summary"`
	ActionableInsights []string `json:"actionable_insights"`
	SuggestedReply     string   `json:"suggested_reply"`
}

// ReviewDocument is the single persisted record per accepted webhook.
// Created inside one webhook invocation, never mutated afterward.
type ReviewDocument struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	ShopID           uuid.UUID         `json:"shop_id" db:"shop_id"`
	RespondentEmail  string            `json:"respondent_email" db:"respondent_email"`
	Status           Status            `json:"status" db:"status"`
	Source           Source            `json:"source" db:"source"`
	Processing       Processing        `json:"processing" db:"processing"`
	Analysis         Analysis          `json:"analysis" db:"analysis"`
	GeneratedContent *GeneratedContent `json:"generated_content,omitempty" db:"generated_content"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// Enrichment is the AI enricher's output, split by the pipeline into
// analysis (category, key themes) and generated_content.
type Enrichment struct {
	Category           Category `json:"category"`
	Summary            string   `json:"summary"`
	KeyThemes          []string `json:"key_themes"`
	ActionableInsights []string `json:"actionable_insights"`
	SuggestedReply     string   `json:"suggested_reply"`
}

// EnrichmentInput is everything the enricher prompt needs.
type EnrichmentInput struct {
	Text      string
	Rating    int
	ShopType  string
	Sentiment Sentiment
	Toxicity  ToxicityStatus
}

// NewRejectedLowQuality builds a document that failed the quality gate.
// It never carries context or generated content.
func NewRejectedLowQuality(shopID uuid.UUID, email string, src Source, proc Processing, quality QualityResult) *ReviewDocument {
	return &ReviewDocument{
		ID:              uuid.New(),
		ShopID:          shopID,
		RespondentEmail: email,
		Status:          StatusRejectedLowQuality,
		Source:          src,
		Processing:      proc,
		Analysis:        Analysis{Quality: quality},
		CreatedAt:       time.Now().UTC(),
	}
}

// NewRejectedIrrelevant builds a document that passed quality but whose text
// is off-topic for the shop's category.
func NewRejectedIrrelevant(shopID uuid.UUID, email string, src Source, proc Processing, quality QualityResult, context ContextResult) *ReviewDocument {
	return &ReviewDocument{
		ID:              uuid.New(),
		ShopID:          shopID,
		RespondentEmail: email,
		Status:          StatusRejectedIrrelevant,
		Source:          src,
		Processing:      proc,
		Analysis:        Analysis{Quality: quality, Context: &context},
		CreatedAt:       time.Now().UTC(),
	}
}

// NewProcessed builds a fully enriched document that passed both gates.
func NewProcessed(shopID uuid.UUID, email string, src Source, proc Processing, quality QualityResult, sentiment Sentiment, enrichment Enrichment) *ReviewDocument {
	insights := enrichment.ActionableInsights
	if insights == nil {
		insights = []string{}
	}
	return &ReviewDocument{
		ID:              uuid.New(),
		ShopID:          shopID,
		RespondentEmail: email,
		Status:          StatusProcessed,
		Source:          src,
		Processing:      proc,
		Analysis: Analysis{
			Quality:   quality,
			Sentiment: sentiment,
			Toxicity:  quality.ToxicityStatus,
			Category:  enrichment.Category,
			KeyThemes: enrichment.KeyThemes,
		},
		GeneratedContent: &GeneratedContent{
			Summary:            enrichment.Summary,
			ActionableInsights: insights,
			SuggestedReply:     enrichment.SuggestedReply,
		},
		CreatedAt: time.Now().UTC(),
	}
}
