package analysis

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarsaleem/taqyeem/internal/inference"
	"github.com/omarsaleem/taqyeem/internal/models"
)

type fakeSentiment struct {
	preds []inference.Prediction
	err   error
	calls int
}

func (f *fakeSentiment) Sentiment(ctx context.Context, text string) ([]inference.Prediction, error) {
	f.calls++
	return f.preds, f.err
}

func TestSentimentVendorLabelMapping(t *testing.T) {
	cases := []struct {
		label string
		want  models.Sentiment
	}{
		{"positive", models.SentimentPositive},
		{"POS", models.SentimentPositive},
		{"neutral", models.SentimentNeutral},
		{"neu", models.SentimentNeutral},
		{"negative", models.SentimentNegative},
		{"NEG", models.SentimentNegative},
		{"LABEL_2", models.SentimentPositive},
		{"LABEL_1", models.SentimentNeutral},
		{"LABEL_0", models.SentimentNegative},
		{"label_0", models.SentimentNegative},
		{"something_else", models.SentimentNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			fake := &fakeSentiment{preds: []inference.Prediction{{Label: tc.label, Score: 0.9}}}
			c := NewSentimentClassifier(fake, zerolog.Nop())
			got, err := c.Classify(context.Background(), "الخدمة ممتازة")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSentimentPicksTopPrediction(t *testing.T) {
	fake := &fakeSentiment{preds: []inference.Prediction{
		{Label: "negative", Score: 0.8},
		{Label: "positive", Score: 0.2},
	}}
	c := NewSentimentClassifier(fake, zerolog.Nop())
	got, err := c.Classify(context.Background(), "الخدمة سيئة")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, got)
}

func TestSentimentEmptyTextIsNeutral(t *testing.T) {
	fake := &fakeSentiment{}
	c := NewSentimentClassifier(fake, zerolog.Nop())
	got, err := c.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, got)
	assert.Zero(t, fake.calls)
}

func TestSentimentModelFailureIsNeutral(t *testing.T) {
	fake := &fakeSentiment{err: models.ErrModelUnavailable}
	c := NewSentimentClassifier(fake, zerolog.Nop())
	got, err := c.Classify(context.Background(), "نص")
	assert.Error(t, err)
	assert.Equal(t, models.SentimentNeutral, got)
}
