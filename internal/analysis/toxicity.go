package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/inference"
	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// ZeroShotter is the slice of the model adapter the classifiers need.
type ZeroShotter interface {
	ZeroShot(ctx context.Context, text string, candidateLabels []string) ([]inference.Prediction, error)
}

// ToxicityClassifier decides toxic / non-toxic / uncertain over fixed
// confidence bands on a two-label zero-shot call.
type ToxicityClassifier struct {
	zeroShot ZeroShotter
	res      *lang.Resources
	logger   zerolog.Logger
}

func NewToxicityClassifier(zeroShot ZeroShotter, res *lang.Resources, logger zerolog.Logger) *ToxicityClassifier {
	return &ToxicityClassifier{
		zeroShot: zeroShot,
		res:      res,
		logger:   logger.With().Str("component", "toxicity").Logger(),
	}
}

// Classify returns the toxicity verdict for the text. Empty or whitespace
// text never reaches the model.
func (c *ToxicityClassifier) Classify(ctx context.Context, text string) (models.ToxicityStatus, error) {
	if strings.TrimSpace(text) == "" {
		return models.ToxicityNonToxic, nil
	}

	toxicLabel := c.res.Toxicity.ToxicLabel
	civilLabel := c.res.Toxicity.CivilLabel
	preds, err := c.zeroShot.ZeroShot(ctx, text, []string{toxicLabel, civilLabel})
	if err != nil {
		return models.ToxicityUncertain, err
	}

	var toxicScore, civilScore float64
	for _, p := range preds {
		switch p.Label {
		case toxicLabel:
			toxicScore = p.Score
		case civilLabel:
			civilScore = p.Score
		}
	}
	top := preds[0]

	status := verdict(top.Label == toxicLabel, top.Label == civilLabel, toxicScore, civilScore)
	c.logger.Debug().
		Str("status", string(status)).
		Float64("toxic_score", toxicScore).
		Float64("civil_score", civilScore).
		Msg("toxicity classified")
	return status, nil
}

// verdict applies the confidence bands: a confident toxic top label is
// toxic, a borderline one is uncertain, a confident civil one is clean,
// and a very low toxic score is clean regardless of the top label.
func verdict(topIsToxic, topIsCivil bool, toxicScore, civilScore float64) models.ToxicityStatus {
	switch {
	case topIsToxic && toxicScore >= 0.60:
		return models.ToxicityToxic
	case topIsToxic && toxicScore >= 0.40:
		return models.ToxicityUncertain
	case topIsCivil && civilScore >= 0.60:
		return models.ToxicityNonToxic
	case toxicScore < 0.35:
		return models.ToxicityNonToxic
	default:
		return models.ToxicityUncertain
	}
}
