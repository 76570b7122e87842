// Package inference is the single adapter for the three external model
// endpoints: sentiment, zero-shot classification, and chat completion.
// All three share one retry policy; callers receive typed results, never
// vendor payloads.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/models"
)

const (
	maxAttempts      = 3
	classifyTimeout  = 10 * time.Second
	chatTimeout      = 70 * time.Second
	maxEstimatedWait = 30 * time.Second
)

// Prediction is one label with its score.
type Prediction struct {
	Label string
	Score float64
}

// Client talks to the model endpoints. One instance per process; safe for
// concurrent use. Per-endpoint semaphores bound in-flight calls so a burst
// of webhooks cannot overwhelm the upstream.
type Client struct {
	sentimentURL string
	zeroShotURL  string
	token        string
	chatModel    string

	httpClient *http.Client
	chatClient *openai.Client

	sentimentSem *semaphore.Weighted
	zeroShotSem  *semaphore.Weighted
	chatSem      *semaphore.Weighted

	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) *Client {
	chatCfg := openai.DefaultConfig(cfg.Models.APIToken)
	chatCfg.BaseURL = cfg.Models.ChatURL
	chatCfg.HTTPClient = &http.Client{Timeout: chatTimeout}

	inflight := int64(cfg.Models.MaxInflight)
	return &Client{
		sentimentURL: cfg.Models.SentimentURL,
		zeroShotURL:  cfg.Models.ZeroShotURL,
		token:        cfg.Models.APIToken,
		chatModel:    cfg.Models.ChatModelID,
		httpClient:   &http.Client{Timeout: classifyTimeout},
		chatClient:   openai.NewClientWithConfig(chatCfg),
		sentimentSem: semaphore.NewWeighted(inflight),
		zeroShotSem:  semaphore.NewWeighted(inflight),
		chatSem:      semaphore.NewWeighted(inflight),
		logger:       logger.With().Str("component", "inference").Logger(),
	}
}

// Sentiment classifies text and returns predictions sorted by descending score.
func (c *Client) Sentiment(ctx context.Context, text string) ([]Prediction, error) {
	if err := c.sentimentSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sentimentSem.Release(1)

	body := map[string]any{"inputs": text}
	raw, err := c.post(ctx, "sentiment", c.sentimentURL, body)
	if err != nil {
		return nil, err
	}
	preds, err := parsePredictionList(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse sentiment response: %v", models.ErrModelUnavailable, err)
	}
	return preds, nil
}

// ZeroShot classifies text against the candidate labels and returns
// predictions sorted by descending score.
func (c *Client) ZeroShot(ctx context.Context, text string, candidateLabels []string) ([]Prediction, error) {
	if err := c.zeroShotSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.zeroShotSem.Release(1)

	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels": candidateLabels,
			"multi_label":      false,
		},
	}
	raw, err := c.post(ctx, "zeroshot", c.zeroShotURL, body)
	if err != nil {
		return nil, err
	}
	preds, err := parseZeroShot(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse zero-shot response: %v", models.ErrModelUnavailable, err)
	}
	return preds, nil
}

// ChatCompletion runs a JSON-constrained completion and returns the raw
// content of the first choice.
func (c *Client) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.chatSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.chatSem.Release(1)

	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   1500,
		Temperature: 0.5,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var content string
	for attempt := 1; ; attempt++ {
		resp, err := c.chatClient.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				callsTotal.WithLabelValues("chat", "error").Inc()
				return "", fmt.Errorf("%w: chat completion returned no choices", models.ErrModelUnavailable)
			}
			content = resp.Choices[0].Message.Content
			callsTotal.WithLabelValues("chat", "ok").Inc()
			return content, nil
		}

		if attempt >= maxAttempts || !retryableChatErr(err) {
			callsTotal.WithLabelValues("chat", "error").Inc()
			return "", fmt.Errorf("%w: chat completion: %v", models.ErrModelUnavailable, err)
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("chat completion retry")
		callsTotal.WithLabelValues("chat", "retry").Inc()
		if err := sleepCtx(ctx, time.Duration(attempt)*time.Second); err != nil {
			return "", err
		}
	}
}

func retryableChatErr(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusServiceUnavailable ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return isTimeout(err)
}

// post sends one JSON request to an inference endpoint under the shared
// retry policy: up to 3 attempts, 503-with-estimated_time waits for the
// hinted duration (capped), transport timeouts retry, anything else is
// ModelUnavailable immediately.
func (c *Client) post(ctx context.Context, endpoint, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	for attempt := 1; ; attempt++ {
		raw, retryAfter, err := c.once(ctx, url, payload)
		if err == nil {
			callsTotal.WithLabelValues(endpoint, "ok").Inc()
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retryable := retryAfter > 0 || isTimeout(err)
		if attempt >= maxAttempts || !retryable {
			callsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("%w: %s: %v", models.ErrModelUnavailable, endpoint, err)
		}

		callsTotal.WithLabelValues(endpoint, "retry").Inc()
		c.logger.Warn().Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Dur("wait", retryAfter).
			Msg("model call retry")
		if retryAfter > 0 {
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return nil, err
			}
		}
	}
}

// once performs a single attempt. A positive retryAfter means the endpoint
// is warming up (503 with an estimated_time hint) and asked us to wait.
func (c *Client) once(ctx context.Context, url string, payload []byte) (raw []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		var hint struct {
			EstimatedTime float64 `json:"estimated_time"`
		}
		wait := time.Second
		if json.Unmarshal(body, &hint) == nil && hint.EstimatedTime > 0 {
			wait = time.Duration(hint.EstimatedTime * float64(time.Second))
			if wait > maxEstimatedWait {
				wait = maxEstimatedWait
			}
		}
		return nil, wait, fmt.Errorf("model loading (503), estimated wait %s", wait)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, 0, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parsePredictionList handles the two shapes sentiment endpoints return:
// a flat list of predictions, or a list wrapping one such list per input.
func parsePredictionList(raw []byte) ([]Prediction, error) {
	type vendorPred struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}

	var nested [][]vendorPred
	var flat []vendorPred
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		flat = nested[0]
	} else if err := json.Unmarshal(raw, &flat); err != nil {
		var single vendorPred
		if err := json.Unmarshal(raw, &single); err != nil || single.Label == "" {
			return nil, fmt.Errorf("unrecognized prediction shape: %s", string(raw))
		}
		flat = []vendorPred{single}
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty prediction list")
	}

	preds := make([]Prediction, len(flat))
	for i, p := range flat {
		preds[i] = Prediction{Label: p.Label, Score: p.Score}
	}
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
	return preds, nil
}

// parseZeroShot reads the parallel labels/scores arrays of a zero-shot
// response, which arrive sorted descending by score.
func parseZeroShot(raw []byte) ([]Prediction, error) {
	var resp struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if len(resp.Labels) == 0 || len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("labels/scores mismatch: %s", string(raw))
	}

	preds := make([]Prediction, len(resp.Labels))
	for i := range resp.Labels {
		preds[i] = Prediction{Label: resp.Labels[i], Score: resp.Scores[i]}
	}
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
	return preds, nil
}
