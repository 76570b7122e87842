package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// RelevancyClassifier decides whether review text is plausibly about the
// shop's category or about generic service quality, or off-topic entirely.
type RelevancyClassifier struct {
	zeroShot ZeroShotter
	res      *lang.Resources
	logger   zerolog.Logger
}

func NewRelevancyClassifier(zeroShot ZeroShotter, res *lang.Resources, logger zerolog.Logger) *RelevancyClassifier {
	return &RelevancyClassifier{
		zeroShot: zeroShot,
		res:      res,
		logger:   logger.With().Str("component", "relevancy").Logger(),
	}
}

// Check classifies the text against three candidate labels: the shop
// category's label, a generic customer-service label, and an off-topic
// label. Short texts get a stricter single-label rule; longer texts also
// weigh the combined category+generic mass.
func (c *RelevancyClassifier) Check(ctx context.Context, text, shopType string) (models.ContextResult, error) {
	categoryLabel := c.res.CategoryLabel(shopType)
	genericLabel := c.res.Relevancy.GenericLabel
	unrelatedLabel := fmt.Sprintf(c.res.Relevancy.UnrelatedLabelFormat, categoryLabel)

	preds, err := c.zeroShot.ZeroShot(ctx, text, []string{categoryLabel, genericLabel, unrelatedLabel})
	if err != nil {
		return models.ContextResult{}, err
	}

	var categoryScore, genericScore float64
	for _, p := range preds {
		switch p.Label {
		case categoryLabel:
			categoryScore = p.Score
		case genericLabel:
			genericScore = p.Score
		}
	}
	top := preds[0]
	combined := categoryScore + genericScore

	var mismatch bool
	if wordCount := len(strings.Fields(text)); wordCount <= 5 {
		// Short texts carry little signal; only a confident off-category
		// top label counts as a mismatch.
		mismatch = top.Score >= 0.5 && top.Label != categoryLabel
	} else {
		mismatch = top.Score < 0.6 ||
			(top.Label != categoryLabel && top.Score >= 0.5 && combined < 0.5)
	}

	result := models.ContextResult{
		HasMismatch:   mismatch,
		DetectedLabel: top.Label,
		TopScore:      top.Score,
		Confidence:    combined,
	}
	if mismatch {
		result.Reason = fmt.Sprintf(c.res.Relevancy.MismatchReasonFormat, categoryLabel)
	}

	c.logger.Debug().
		Bool("mismatch", mismatch).
		Str("top_label", top.Label).
		Float64("top_score", top.Score).
		Float64("combined", combined).
		Msg("relevancy checked")
	return result, nil
}
