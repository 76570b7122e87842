package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarsaleem/taqyeem/internal/analysis"
	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/models"
)

type fakeStore struct {
	shop      *models.Shop
	exists    bool
	existsErr error
	insertErr error

	inserted    []*models.ReviewDocument
	existsCalls int
}

func (f *fakeStore) GetShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	if f.shop == nil || f.shop.ID != id {
		return nil, models.ErrShopNotFound
	}
	return f.shop, nil
}

func (f *fakeStore) ReviewExists(ctx context.Context, shopID uuid.UUID, email string) (bool, error) {
	f.existsCalls++
	return f.exists, f.existsErr
}

func (f *fakeStore) InsertReview(ctx context.Context, doc *models.ReviewDocument) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, doc)
	return nil
}

type fakeNotifier struct {
	calls int
	last  *models.ReviewDocument
}

func (f *fakeNotifier) NotifyProcessed(ctx context.Context, shop *models.Shop, doc *models.ReviewDocument) {
	f.calls++
	f.last = doc
}

type stubToxicity struct {
	status models.ToxicityStatus
	err    error
	calls  int
}

func (s *stubToxicity) Classify(ctx context.Context, text string) (models.ToxicityStatus, error) {
	s.calls++
	if s.err != nil {
		return models.ToxicityUncertain, s.err
	}
	return s.status, nil
}

type stubSentiment struct {
	sentiment models.Sentiment
	err       error
	calls     int
}

func (s *stubSentiment) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	s.calls++
	if s.err != nil {
		return models.SentimentNeutral, s.err
	}
	return s.sentiment, nil
}

type stubRelevancy struct {
	result models.ContextResult
	err    error
	calls  int
}

func (s *stubRelevancy) Check(ctx context.Context, text, shopType string) (models.ContextResult, error) {
	s.calls++
	return s.result, s.err
}

type stubEnricher struct {
	enrichment models.Enrichment
	calls      int
	lastInput  models.EnrichmentInput
}

func (s *stubEnricher) Enrich(ctx context.Context, input models.EnrichmentInput) models.Enrichment {
	s.calls++
	s.lastInput = input
	return s.enrichment
}

type fixture struct {
	shopID    uuid.UUID
	store     *fakeStore
	notifier  *fakeNotifier
	toxicity  *stubToxicity
	sentiment *stubSentiment
	relevancy *stubRelevancy
	enricher  *stubEnricher
	pipe      *Pipeline
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Quality.Weights = config.Weights{Length: 0.30, Diversity: 0.20, ValidChars: 0.25, Repetition: 0.15, Toxicity: 0.10}
	cfg.Quality.HardReject = 0.45
	cfg.Quality.BaseThreshold = 0.55
	cfg.Quality.UncertainThreshold = 0.65
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	shopID := uuid.New()
	f := &fixture{
		shopID: shopID,
		store: &fakeStore{shop: &models.Shop{
			ID:       shopID,
			ShopName: "مطعم الذواقة",
			ShopType: "restaurant",
		}},
		notifier:  &fakeNotifier{},
		toxicity:  &stubToxicity{status: models.ToxicityNonToxic},
		sentiment: &stubSentiment{sentiment: models.SentimentPositive},
		relevancy: &stubRelevancy{},
		enricher: &stubEnricher{enrichment: models.Enrichment{
			Category:           models.CategoryPraise,
			Summary:            "تجربة ممتازة",
			KeyThemes:          []string{"طعام", "خدمة"},
			ActionableInsights: []string{"الحفاظ على المستوى"},
			SuggestedReply:     "شكراً لك",
		}},
	}
	f.pipe = New(
		testConfig(),
		f.store,
		f.notifier,
		analysis.NewQualityScorer(testConfig().Quality.Weights),
		f.toxicity,
		f.sentiment,
		f.relevancy,
		f.enricher,
		zerolog.Nop(),
	)
	return f
}

func (f *fixture) payload(rating any, enjoy string) WebhookPayload {
	return payloadWith(
		FormField{Label: "shop_id", Value: f.shopID.String()},
		FormField{Label: "email", Value: "user@example.com"},
		FormField{Label: "enjoy_most", Value: enjoy},
		FormField{Label: "stars", Value: rating},
	)
}

const goodReview = "الأكل لذيذ جداً والخدمة ممتازة حقاً في هذا المكان الرائع"

func TestProcessHappyPath(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, outcome.Status)

	require.Len(t, f.store.inserted, 1)
	doc := f.store.inserted[0]
	assert.Equal(t, models.StatusProcessed, doc.Status)
	assert.Equal(t, f.shopID, doc.ShopID)
	assert.Equal(t, "user@example.com", doc.RespondentEmail)
	assert.Equal(t, models.SentimentPositive, doc.Analysis.Sentiment)
	assert.Equal(t, models.CategoryPraise, doc.Analysis.Category)
	assert.Equal(t, 5, doc.Source.Rating)
	assert.False(t, doc.Processing.IsProfane)
	require.NotNil(t, doc.GeneratedContent)
	assert.NotEmpty(t, doc.GeneratedContent.Summary)
	assert.GreaterOrEqual(t, doc.Analysis.Quality.QualityScore, 0.45)

	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, 1, f.toxicity.calls)
	assert.Equal(t, 1, f.relevancy.calls)
	assert.Equal(t, 1, f.sentiment.calls)
	assert.Equal(t, 1, f.enricher.calls)
}

func TestProcessToxicRejection(t *testing.T) {
	f := newFixture(t)
	f.toxicity.status = models.ToxicityToxic

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(2), goodReview))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectedLowQuality, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)

	require.Len(t, f.store.inserted, 1)
	doc := f.store.inserted[0]
	assert.Equal(t, models.ToxicityToxic, doc.Analysis.Quality.ToxicityStatus)
	assert.True(t, doc.Analysis.Quality.HasFlag(analysis.FlagHighToxicity))
	assert.True(t, doc.Processing.IsProfane)
	assert.Nil(t, doc.Analysis.Context)
	assert.Nil(t, doc.GeneratedContent)

	assert.Zero(t, f.relevancy.calls)
	assert.Zero(t, f.sentiment.calls)
	assert.Zero(t, f.enricher.calls)
	assert.Zero(t, f.notifier.calls)
}

func TestProcessGibberishRejection(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(0), "@@@@@#####!!!"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectedLowQuality, outcome.Status)
	assert.Zero(t, f.relevancy.calls)
}

func TestProcessIrrelevantRejection(t *testing.T) {
	f := newFixture(t)
	f.relevancy.result = models.ContextResult{
		HasMismatch:   true,
		DetectedLabel: "سياق آخر",
		TopScore:      0.8,
		Reason:        "النص بعيد عن سياق المطعم",
	}

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(3), "مباراة كرة القدم كانت مثيرة جداً اليوم والجمهور كان متحمساً"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectedIrrelevant, outcome.Status)

	require.Len(t, f.store.inserted, 1)
	doc := f.store.inserted[0]
	require.NotNil(t, doc.Analysis.Context)
	assert.True(t, doc.Analysis.Context.HasMismatch)
	assert.GreaterOrEqual(t, doc.Analysis.Quality.QualityScore, 0.45, "irrelevant implies the quality gate passed")
	assert.Nil(t, doc.GeneratedContent)

	assert.Zero(t, f.sentiment.calls)
	assert.Zero(t, f.enricher.calls)
	assert.Zero(t, f.notifier.calls)
}

func TestProcessStarsOnly(t *testing.T) {
	f := newFixture(t)
	f.enricher.enrichment = models.Enrichment{
		Category:           models.CategoryPraise,
		Summary:            "تقييم ⭐⭐⭐⭐ بدون تعليقات نصية",
		KeyThemes:          []string{},
		ActionableInsights: []string{},
		SuggestedReply:     "شكراً لتقييمك!",
	}

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(4), ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, outcome.Status)

	require.Len(t, f.store.inserted, 1)
	doc := f.store.inserted[0]
	assert.True(t, doc.Analysis.Quality.HasFlag(analysis.FlagRatingOnly))
	assert.InDelta(t, 0.6, doc.Analysis.Quality.QualityScore, 1e-9)
	assert.Equal(t, []string{}, doc.GeneratedContent.ActionableInsights)

	assert.Zero(t, f.relevancy.calls, "rating-only reviews skip the relevancy model")
	assert.Equal(t, 1, f.notifier.calls)
}

func TestProcessEmptyUnratedReview(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(0), ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectedLowQuality, outcome.Status)

	doc := f.store.inserted[0]
	assert.True(t, doc.Analysis.Quality.HasFlag(analysis.FlagEmptyContent))
	assert.Zero(t, doc.Analysis.Quality.QualityScore)
}

func TestProcessDuplicateStopsBeforeModels(t *testing.T) {
	f := newFixture(t)
	f.store.exists = true

	_, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	assert.ErrorIs(t, err, models.ErrDuplicateReview)
	assert.Empty(t, f.store.inserted)
	assert.Zero(t, f.toxicity.calls)
	assert.Zero(t, f.relevancy.calls)
	assert.Zero(t, f.enricher.calls)
}

func TestProcessAnonymousSkipsDuplicateCheck(t *testing.T) {
	f := newFixture(t)
	f.store.exists = true

	payload := payloadWith(
		FormField{Label: "shop_id", Value: f.shopID.String()},
		FormField{Label: "enjoy_most", Value: goodReview},
		FormField{Label: "stars", Value: float64(5)},
	)
	outcome, err := f.pipe.Process(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, outcome.Status)
	assert.Zero(t, f.store.existsCalls)
}

func TestProcessInsertRaceSurfacesDuplicate(t *testing.T) {
	f := newFixture(t)
	f.store.insertErr = models.ErrDuplicateReview

	_, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	assert.ErrorIs(t, err, models.ErrDuplicateReview)
	assert.Zero(t, f.notifier.calls)
}

func TestProcessPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.insertErr = errors.New("connection reset")

	_, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Zero(t, f.notifier.calls)
}

func TestProcessUnknownShop(t *testing.T) {
	f := newFixture(t)

	payload := payloadWith(
		FormField{Label: "shop_id", Value: uuid.NewString()},
		FormField{Label: "stars", Value: float64(5)},
	)
	_, err := f.pipe.Process(context.Background(), payload)
	assert.ErrorIs(t, err, models.ErrShopNotFound)
}

func TestProcessUnparseableShopID(t *testing.T) {
	f := newFixture(t)

	payload := payloadWith(FormField{Label: "shop_id", Value: "not-a-uuid"})
	_, err := f.pipe.Process(context.Background(), payload)
	assert.ErrorIs(t, err, models.ErrShopNotFound)
}

func TestProcessModelOutageStillProcesses(t *testing.T) {
	f := newFixture(t)
	f.toxicity.err = models.ErrModelUnavailable
	f.relevancy.err = models.ErrModelUnavailable
	f.sentiment.err = models.ErrModelUnavailable
	f.enricher.enrichment = models.Enrichment{
		Category:           models.CategoryNeutral,
		Summary:            "تم استلام التقييم وسيتم مراجعته.",
		KeyThemes:          []string{},
		ActionableInsights: []string{},
		SuggestedReply:     "شكراً لك",
	}

	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, outcome.Status)

	doc := f.store.inserted[0]
	assert.Equal(t, models.ToxicityUncertain, doc.Analysis.Quality.ToxicityStatus)
	assert.Equal(t, models.SentimentNeutral, doc.Analysis.Sentiment)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestProcessUncertainToxicityNeedsHigherScore(t *testing.T) {
	f := newFixture(t)
	f.toxicity.status = models.ToxicityUncertain

	// Short text scores below the uncertain threshold.
	outcome, err := f.pipe.Process(context.Background(), f.payload(float64(3), "جيد جداً فعلاً"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectedLowQuality, outcome.Status)

	// A substantial review clears it even with uncertain toxicity.
	f2 := newFixture(t)
	f2.toxicity.status = models.ToxicityUncertain
	outcome, err = f2.pipe.Process(context.Background(), f2.payload(float64(3), goodReview))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, outcome.Status)
}

func TestProcessEnrichmentInputCarriesContext(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipe.Process(context.Background(), f.payload(float64(5), goodReview))
	require.NoError(t, err)
	assert.Equal(t, "restaurant", f.enricher.lastInput.ShopType)
	assert.Equal(t, 5, f.enricher.lastInput.Rating)
	assert.Equal(t, models.SentimentPositive, f.enricher.lastInput.Sentiment)
	assert.NotEmpty(t, f.enricher.lastInput.Text)
}
