package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarsaleem/taqyeem/internal/models"
)

type fakeChat struct {
	content string
	err     error
	calls   int
}

func (f *fakeChat) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.content, f.err
}

const chatJSON = `{
	"category": "مدح",
	"summary": "تجربة ممتازة",
	"key_themes": ["طعام", "خدمة"],
	"actionable_insights": ["الحفاظ على مستوى الخدمة"],
	"suggested_reply": "شكراً جزيلاً لتقييمك"
}`

func enrichInput(text string) models.EnrichmentInput {
	return models.EnrichmentInput{
		Text:      text,
		Rating:    5,
		ShopType:  "restaurant",
		Sentiment: models.SentimentPositive,
		Toxicity:  models.ToxicityNonToxic,
	}
}

func TestEnrichParsesModelOutput(t *testing.T) {
	fake := &fakeChat{content: chatJSON}
	e := NewEnricher(fake, testResources(t), zerolog.Nop())

	got := e.Enrich(context.Background(), enrichInput("الأكل لذيذ جداً والخدمة ممتازة"))
	assert.Equal(t, models.CategoryPraise, got.Category)
	assert.Equal(t, "تجربة ممتازة", got.Summary)
	assert.Equal(t, []string{"طعام", "خدمة"}, got.KeyThemes)
	assert.Equal(t, []string{"الحفاظ على مستوى الخدمة"}, got.ActionableInsights)
	assert.Equal(t, 1, fake.calls)
}

func TestEnrichAcceptsEnglishCategory(t *testing.T) {
	fake := &fakeChat{content: `{"category":"suggestion","summary":"s","key_themes":[],"actionable_insights":[],"suggested_reply":"r"}`}
	e := NewEnricher(fake, testResources(t), zerolog.Nop())

	got := e.Enrich(context.Background(), enrichInput("اقترح اضافة جلسات خارجية للمكان"))
	assert.Equal(t, models.CategorySuggestion, got.Category)
}

func TestEnrichSkipsModelForShortText(t *testing.T) {
	fake := &fakeChat{content: chatJSON}
	res := testResources(t)
	e := NewEnricher(fake, res, zerolog.Nop())

	// 14 runes: skipped
	fourteen := strings.Repeat("ا", 14)
	got := e.Enrich(context.Background(), enrichInput(fourteen))
	assert.Zero(t, fake.calls)
	assert.Equal(t, models.CategoryPraise, got.Category)
	assert.Empty(t, got.KeyThemes)
	assert.Empty(t, got.ActionableInsights)
	assert.Equal(t, res.Enrichment.RatingOnlyReply, got.SuggestedReply)

	// 15 runes: not skipped
	fifteen := strings.Repeat("ا", 15)
	e.Enrich(context.Background(), enrichInput(fifteen))
	assert.Equal(t, 1, fake.calls)
}

func TestEnrichRatingOnlyCategories(t *testing.T) {
	e := NewEnricher(&fakeChat{}, testResources(t), zerolog.Nop())

	cases := []struct {
		rating int
		want   models.Category
	}{
		{5, models.CategoryPraise},
		{4, models.CategoryPraise},
		{3, models.CategoryNeutral},
		{2, models.CategoryComplaint},
		{1, models.CategoryComplaint},
		{0, models.CategoryComplaint},
	}
	for _, tc := range cases {
		input := enrichInput("")
		input.Rating = tc.rating
		got := e.Enrich(context.Background(), input)
		assert.Equal(t, tc.want, got.Category, "rating %d", tc.rating)
		assert.NotEmpty(t, got.Summary)
	}
}

func TestEnrichShortTextUnratedIsComplaint(t *testing.T) {
	fake := &fakeChat{content: chatJSON}
	e := NewEnricher(fake, testResources(t), zerolog.Nop())

	input := enrichInput("جيد جدا رائع")
	input.Rating = 0
	input.Sentiment = models.SentimentNeutral

	got := e.Enrich(context.Background(), input)
	assert.Zero(t, fake.calls)
	assert.Equal(t, models.CategoryComplaint, got.Category)
	assert.Contains(t, got.Summary, testResources(t).Enrichment.RatingOnlyNoStars)
}

func TestEnrichFallbackOnModelFailure(t *testing.T) {
	fake := &fakeChat{err: models.ErrModelUnavailable}
	res := testResources(t)
	e := NewEnricher(fake, res, zerolog.Nop())

	input := enrichInput("الأكل كان سيئاً جداً والخدمة بطيئة")
	input.Sentiment = models.SentimentNegative
	input.Rating = 1

	got := e.Enrich(context.Background(), input)
	assert.Equal(t, models.CategoryComplaint, got.Category)
	assert.Equal(t, res.Enrichment.FallbackSummary, got.Summary)
	assert.Equal(t, res.Enrichment.FallbackReply, got.SuggestedReply)
	assert.Empty(t, got.KeyThemes)
	assert.Empty(t, got.ActionableInsights)
	assert.Equal(t, 2, fake.calls, "one retry on top of the first attempt")
}

func TestEnrichFallbackOnUnparseableOutput(t *testing.T) {
	fake := &fakeChat{content: "not json at all"}
	e := NewEnricher(fake, testResources(t), zerolog.Nop())

	got := e.Enrich(context.Background(), enrichInput("تجربة عادية لا جديد يذكر فيها"))
	require.NotEmpty(t, got.Summary)
	assert.Equal(t, models.CategoryPraise, got.Category, "positive sentiment drives the fallback category")
	assert.Equal(t, 2, fake.calls)
}

func TestEnrichUnknownCategoryFallsBackToSentiment(t *testing.T) {
	fake := &fakeChat{content: `{"category":"غريب","summary":"ملخص","key_themes":[],"actionable_insights":[],"suggested_reply":"رد"}`}
	e := NewEnricher(fake, testResources(t), zerolog.Nop())

	got := e.Enrich(context.Background(), enrichInput("تجربة جيدة بشكل عام في المكان"))
	assert.Equal(t, models.CategoryPraise, got.Category)
	assert.Equal(t, "ملخص", got.Summary)
}
