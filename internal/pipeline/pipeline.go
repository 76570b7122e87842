package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/analysis"
	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// Relevancy skips the model entirely for near-empty text.
const relevancyMinChars = 10

// Store is the persistence the pipeline depends on.
type Store interface {
	GetShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	ReviewExists(ctx context.Context, shopID uuid.UUID, email string) (bool, error)
	InsertReview(ctx context.Context, doc *models.ReviewDocument) error
}

// Notifier fans a processed review out to the shop owner's channels.
// Best-effort: implementations log and swallow their own failures.
type Notifier interface {
	NotifyProcessed(ctx context.Context, shop *models.Shop, doc *models.ReviewDocument)
}

// ToxicityClassifier yields the toxic / non-toxic / uncertain verdict.
type ToxicityClassifier interface {
	Classify(ctx context.Context, text string) (models.ToxicityStatus, error)
}

// SentimentClassifier yields the three-way sentiment label.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// RelevancyClassifier decides whether the text fits the shop's category.
type RelevancyClassifier interface {
	Check(ctx context.Context, text, shopType string) (models.ContextResult, error)
}

// Enricher produces the generated content; it never fails, falling back to
// canned output internally.
type Enricher interface {
	Enrich(ctx context.Context, input models.EnrichmentInput) models.Enrichment
}

// Outcome is the pipeline's successful result: one of the three terminal
// statuses. Failures (malformed payload, unknown shop, duplicate,
// persistence) are returned as errors instead.
type Outcome struct {
	Status   models.Status `json:"status"`
	ReviewID uuid.UUID     `json:"review_id"`
	Reason   string        `json:"reason,omitempty"`
}

// Pipeline orchestrates one review from webhook payload to persisted
// document. Safe for concurrent use; each call is one independent task.
type Pipeline struct {
	cfg       *config.Config
	store     Store
	notifier  Notifier
	scorer    *analysis.QualityScorer
	toxicity  ToxicityClassifier
	sentiment SentimentClassifier
	relevancy RelevancyClassifier
	enricher  Enricher
	logger    zerolog.Logger
}

func New(
	cfg *config.Config,
	store Store,
	notifier Notifier,
	scorer *analysis.QualityScorer,
	toxicity ToxicityClassifier,
	sentiment SentimentClassifier,
	relevancy RelevancyClassifier,
	enricher Enricher,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		notifier:  notifier,
		scorer:    scorer,
		toxicity:  toxicity,
		sentiment: sentiment,
		relevancy: relevancy,
		enricher:  enricher,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs the full stage sequence for one webhook payload.
func (p *Pipeline) Process(ctx context.Context, payload WebhookPayload) (*Outcome, error) {
	ext, err := ExtractFields(payload)
	if err != nil {
		return nil, err
	}
	logger := p.logger.With().Str("shop_id", ext.ShopID).Logger()

	shopID, err := uuid.Parse(ext.ShopID)
	if err != nil {
		return nil, fmt.Errorf("%w: shop_id %q is not a valid id", models.ErrShopNotFound, ext.ShopID)
	}
	shop, err := p.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	if ext.RespondentEmail != "" {
		exists, err := p.store.ReviewExists(ctx, shopID, ext.RespondentEmail)
		if err != nil {
			return nil, fmt.Errorf("%w: duplicate check: %v", models.ErrPersistence, err)
		}
		if exists {
			return nil, models.ErrDuplicateReview
		}
	}

	shopType := shop.ShopType
	if shopType == "" {
		shopType = ext.ShopType
	}

	text := concatenate(ext)
	source := models.Source{Rating: ext.Rating, Fields: ext.SourceFields}

	toxicity, err := p.toxicity.Classify(ctx, text)
	if err != nil {
		// A dead toxicity model must not let profanity straight through;
		// uncertain tightens the quality gate instead.
		logger.Warn().Err(err).Msg("toxicity classification failed, treating as uncertain")
		toxicity = models.ToxicityUncertain
	}
	processing := models.Processing{
		ConcatenatedText: text,
		IsProfane:        toxicity == models.ToxicityToxic,
	}

	quality := p.scorer.Score(ext.EnjoyMost, ext.ImproveProduct, ext.AdditionalFeedback, ext.Rating, toxicity)
	if reason, rejected := p.qualityVerdict(quality); rejected {
		doc := models.NewRejectedLowQuality(shopID, ext.RespondentEmail, source, processing, quality)
		if err := p.persist(ctx, doc); err != nil {
			return nil, err
		}
		logger.Info().Str("review_id", doc.ID.String()).Str("reason", reason).Msg("review rejected: low quality")
		outcomesTotal.WithLabelValues(string(models.StatusRejectedLowQuality)).Inc()
		return &Outcome{Status: models.StatusRejectedLowQuality, ReviewID: doc.ID, Reason: reason}, nil
	}

	if ctxResult, mismatch := p.relevancyVerdict(ctx, logger, text, shopType, quality); mismatch {
		doc := models.NewRejectedIrrelevant(shopID, ext.RespondentEmail, source, processing, quality, ctxResult)
		if err := p.persist(ctx, doc); err != nil {
			return nil, err
		}
		logger.Info().Str("review_id", doc.ID.String()).Str("detected", ctxResult.DetectedLabel).Msg("review rejected: irrelevant")
		outcomesTotal.WithLabelValues(string(models.StatusRejectedIrrelevant)).Inc()
		return &Outcome{Status: models.StatusRejectedIrrelevant, ReviewID: doc.ID, Reason: ctxResult.Reason}, nil
	}

	sentiment, err := p.sentiment.Classify(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("sentiment classification failed, treating as neutral")
		sentiment = models.SentimentNeutral
	}

	enrichment := p.enricher.Enrich(ctx, models.EnrichmentInput{
		Text:      text,
		Rating:    ext.Rating,
		ShopType:  shopType,
		Sentiment: sentiment,
		Toxicity:  toxicity,
	})

	doc := models.NewProcessed(shopID, ext.RespondentEmail, source, processing, quality, sentiment, enrichment)
	if err := p.persist(ctx, doc); err != nil {
		return nil, err
	}
	logger.Info().
		Str("review_id", doc.ID.String()).
		Str("sentiment", string(sentiment)).
		Str("category", string(enrichment.Category)).
		Msg("review processed")
	outcomesTotal.WithLabelValues(string(models.StatusProcessed)).Inc()

	p.notifier.NotifyProcessed(ctx, shop, doc)

	return &Outcome{Status: models.StatusProcessed, ReviewID: doc.ID}, nil
}

func (p *Pipeline) persist(ctx context.Context, doc *models.ReviewDocument) error {
	err := p.store.InsertReview(ctx, doc)
	if err == nil || errors.Is(err, models.ErrDuplicateReview) || errors.Is(err, models.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrPersistence, err)
}

// qualityVerdict is the quality gate: total, side-effect-free, thresholds
// from configuration. Toxic content is rejected outright; borderline
// toxicity and suspicious content need a higher score to pass.
func (p *Pipeline) qualityVerdict(q models.QualityResult) (reason string, rejected bool) {
	th := p.cfg.Quality
	switch {
	case q.ToxicityStatus == models.ToxicityToxic:
		return "toxic content", true
	case q.QualityScore < th.HardReject:
		return fmt.Sprintf("quality score %.2f below threshold", q.QualityScore), true
	case q.ToxicityStatus == models.ToxicityUncertain && q.QualityScore < th.UncertainThreshold:
		return fmt.Sprintf("uncertain toxicity with score %.2f", q.QualityScore), true
	case q.IsSuspicious && q.QualityScore < th.BaseThreshold:
		return fmt.Sprintf("suspicious content with score %.2f (flags: %s)", q.QualityScore, strings.Join(q.Flags, ",")), true
	}
	return "", false
}

// relevancyVerdict runs the relevancy gate. Trivial text skips the model
// call, and any model failure fails open: a review is never rejected as
// irrelevant because the classifier was down.
func (p *Pipeline) relevancyVerdict(ctx context.Context, logger zerolog.Logger, text, shopType string, quality models.QualityResult) (models.ContextResult, bool) {
	if len([]rune(text)) < relevancyMinChars || quality.HasFlag(analysis.FlagRatingOnly) {
		return models.ContextResult{}, false
	}

	result, err := p.relevancy.Check(ctx, text, shopType)
	if err != nil {
		logger.Warn().Err(err).Msg("relevancy check failed, assuming relevant")
		return models.ContextResult{}, false
	}
	return result, result.HasMismatch
}

// concatenate joins the three text fields in fixed order, empties dropped,
// and normalizes the result.
func concatenate(ext *Extracted) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ext.EnjoyMost, ext.ImproveProduct, ext.AdditionalFeedback} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	return analysis.Normalize(strings.Join(parts, " "))
}
