// Package pipeline drives a webhook payload through the fixed stage
// sequence: extraction, validation, normalization, toxicity, the quality
// and relevancy gates, enrichment, persistence, and notification fan-out.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omarsaleem/taqyeem/internal/models"
)

// WebhookPayload is the form provider's webhook body.
type WebhookPayload struct {
	Data struct {
		Fields []FormField `json:"fields" validate:"required,min=1"`
	} `json:"data" validate:"required"`
}

// FormField is one labeled answer from the review form.
type FormField struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Extracted is the review data pulled out of the field array. SourceFields
// preserves every labeled value verbatim for the persisted document.
type Extracted struct {
	Rating          int
	SourceFields    map[string]any
	ShopID          string
	RespondentEmail string
	RespondentPhone string
	ShopType        string
	ShopName        string

	EnjoyMost          string
	ImproveProduct     string
	AdditionalFeedback string
}

// ExtractFields pulls the review data out of the webhook's field array.
// A missing shop_id is fatal; everything else degrades gracefully.
func ExtractFields(payload WebhookPayload) (*Extracted, error) {
	fields := payload.Data.Fields
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty fields array", models.ErrMalformedPayload)
	}

	ext := &Extracted{
		SourceFields: make(map[string]any, len(fields)),
		ShopType:     "general",
	}

	for _, f := range fields {
		if f.Label != "" {
			ext.SourceFields[f.Label] = f.Value
		}

		if strings.EqualFold(f.Type, "RATING") || f.Label == "stars" {
			ext.Rating = parseRating(f.Value)
			continue
		}

		switch f.Label {
		case "shop_id":
			ext.ShopID = asString(f.Value)
		case "email":
			ext.RespondentEmail = strings.TrimSpace(asString(f.Value))
		case "phone":
			ext.RespondentPhone = strings.TrimSpace(asString(f.Value))
		case "shop_type":
			if v := strings.TrimSpace(asString(f.Value)); v != "" {
				ext.ShopType = v
			}
		case "shop_name":
			ext.ShopName = strings.TrimSpace(asString(f.Value))
		case "enjoy_most":
			ext.EnjoyMost = asString(f.Value)
		case "improve_product":
			ext.ImproveProduct = asString(f.Value)
		case "additional_feedback":
			ext.AdditionalFeedback = asString(f.Value)
		}
	}

	if ext.ShopID == "" {
		return nil, fmt.Errorf("%w: missing shop_id", models.ErrMalformedPayload)
	}
	return ext, nil
}

// parseRating reads a star rating out of whatever the form sent; anything
// unparseable means no rating was supplied.
func parseRating(v any) int {
	switch val := v.(type) {
	case float64:
		return clampRating(int(val))
	case int:
		return clampRating(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return clampRating(n)
	default:
		return 0
	}
}

func clampRating(n int) int {
	if n < 0 || n > 5 {
		return 0
	}
	return n
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
