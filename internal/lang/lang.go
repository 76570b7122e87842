// Package lang holds every user-facing string and every zero-shot candidate
// label the pipeline uses. The content is Arabic; the code never embeds such
// strings inline.
package lang

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed lang.yaml
var defaultYAML []byte

type Resources struct {
	Toxicity struct {
		ToxicLabel string `yaml:"toxic_label"`
		CivilLabel string `yaml:"civil_label"`
	} `yaml:"toxicity"`

	Relevancy struct {
		GenericLabel         string            `yaml:"generic_label"`
		UnrelatedLabelFormat string            `yaml:"unrelated_label_format"`
		MismatchReasonFormat string            `yaml:"mismatch_reason_format"`
		CategoryLabels       map[string]string `yaml:"category_labels"`
	} `yaml:"relevancy"`

	Sentiment struct {
		Display map[string]string `yaml:"display"`
		Emoji   map[string]string `yaml:"emoji"`
	} `yaml:"sentiment"`

	Enrichment struct {
		Categories              map[string]string `yaml:"categories"`
		SystemPrompt            string            `yaml:"system_prompt"`
		UserPromptFormat        string            `yaml:"user_prompt_format"`
		FallbackSummary         string            `yaml:"fallback_summary"`
		FallbackReply           string            `yaml:"fallback_reply"`
		RatingOnlySummaryFormat string            `yaml:"rating_only_summary_format"`
		RatingOnlyNoStars       string            `yaml:"rating_only_no_stars"`
		RatingOnlyReply         string            `yaml:"rating_only_reply"`
	} `yaml:"enrichment"`

	Telegram struct {
		HeaderTitle        string `yaml:"header_title"`
		StarsLineFormat    string `yaml:"stars_line_format"`
		QualityLineFormat  string `yaml:"quality_line_format"`
		TextSectionFormat  string `yaml:"text_section_format"`
		CategoryLineFormat string `yaml:"category_line_format"`
		SummaryLineFormat  string `yaml:"summary_line_format"`
		CustomerHeader     string `yaml:"customer_header"`
		EmailLineFormat    string `yaml:"email_line_format"`
		PhoneLineFormat    string `yaml:"phone_line_format"`
		InsightsHeader     string `yaml:"insights_header"`
		ReplySectionFormat string `yaml:"reply_section_format"`
		WarningsHeader     string `yaml:"warnings_header"`
		ProfaneWarning     string `yaml:"profane_warning"`
		SuspiciousWarning  string `yaml:"suspicious_warning"`
		Footer             string `yaml:"footer"`
		TruncatedSuffix    string `yaml:"truncated_suffix"`
		LinkSuccess        string `yaml:"link_success"`
	} `yaml:"telegram"`

	Push struct {
		TitleFormat string `yaml:"title_format"`
		BodyFormat  string `yaml:"body_format"`
	} `yaml:"push"`
}

// Load parses the embedded resources. When categoryLabelsPath is non-empty
// the file is read as a YAML mapping of shop_type to candidate label and
// merged over the built-in category table.
func Load(categoryLabelsPath string) (*Resources, error) {
	var res Resources
	if err := yaml.Unmarshal(defaultYAML, &res); err != nil {
		return nil, fmt.Errorf("parse embedded lang resources: %w", err)
	}

	if categoryLabelsPath != "" {
		raw, err := os.ReadFile(categoryLabelsPath)
		if err != nil {
			return nil, fmt.Errorf("read category labels file: %w", err)
		}
		override := map[string]string{}
		if err := yaml.Unmarshal(raw, &override); err != nil {
			return nil, fmt.Errorf("parse category labels file: %w", err)
		}
		for shopType, label := range override {
			res.Relevancy.CategoryLabels[shopType] = label
		}
	}

	return &res, nil
}

// CategoryLabel resolves a shop type to its zero-shot candidate label,
// falling back to the generic business label for unknown types.
func (r *Resources) CategoryLabel(shopType string) string {
	if label, ok := r.Relevancy.CategoryLabels[shopType]; ok {
		return label
	}
	return r.Relevancy.CategoryLabels["general"]
}

// SentimentDisplay returns the localized display string for a sentiment value.
func (r *Resources) SentimentDisplay(sentiment string) string {
	if s, ok := r.Sentiment.Display[sentiment]; ok {
		return s
	}
	return r.Sentiment.Display["neutral"]
}

// SentimentEmoji returns the emoji for a sentiment value.
func (r *Resources) SentimentEmoji(sentiment string) string {
	if s, ok := r.Sentiment.Emoji[sentiment]; ok {
		return s
	}
	return r.Sentiment.Emoji["neutral"]
}
