package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/inference"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// SentimentAnalyzer is the slice of the model adapter the sentiment
// classifier needs.
type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, text string) ([]inference.Prediction, error)
}

// SentimentClassifier normalizes vendor sentiment labels to the internal
// three-way label.
type SentimentClassifier struct {
	analyzer SentimentAnalyzer
	logger   zerolog.Logger
}

func NewSentimentClassifier(analyzer SentimentAnalyzer, logger zerolog.Logger) *SentimentClassifier {
	return &SentimentClassifier{
		analyzer: analyzer,
		logger:   logger.With().Str("component", "sentiment").Logger(),
	}
}

// Classify returns the sentiment of the text. Empty text is neutral
// without a model call.
func (c *SentimentClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return models.SentimentNeutral, nil
	}

	preds, err := c.analyzer.Sentiment(ctx, text)
	if err != nil {
		return models.SentimentNeutral, err
	}

	top := preds[0]
	sentiment := mapVendorLabel(top.Label)
	c.logger.Debug().
		Str("vendor_label", top.Label).
		Str("sentiment", string(sentiment)).
		Float64("score", top.Score).
		Msg("sentiment classified")
	return sentiment, nil
}

// mapVendorLabel prefers the vendor's textual label; the ordinal LABEL_n
// scheme is only a fallback for vendors that emit nothing else. Unknown
// labels map to neutral.
func mapVendorLabel(label string) models.Sentiment {
	switch strings.ToLower(label) {
	case "positive", "pos":
		return models.SentimentPositive
	case "neutral", "neu":
		return models.SentimentNeutral
	case "negative", "neg":
		return models.SentimentNegative
	}
	switch strings.ToUpper(label) {
	case "LABEL_2":
		return models.SentimentPositive
	case "LABEL_1":
		return models.SentimentNeutral
	case "LABEL_0":
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}
