package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// Telegram rejects messages longer than this.
const maxChatMessageLen = 4096

// BuildPushContent assembles the push notification title and body.
func BuildPushContent(res *lang.Resources, shop *models.Shop, doc *models.ReviewDocument) (title, body string) {
	title = fmt.Sprintf(res.Push.TitleFormat, shop.ShopName)
	summary := ""
	if doc.GeneratedContent != nil {
		summary = doc.GeneratedContent.Summary
	}
	body = fmt.Sprintf(res.Push.BodyFormat, doc.Source.Rating, summary)
	return title, body
}

// BuildReviewMessage assembles the rich Markdown chat message for a
// processed review: header, truncated text, classification, customer
// contact, insights for negative reviews, warnings, footer. The result is
// capped at the chat message limit with a truncation marker.
func BuildReviewMessage(res *lang.Resources, shop *models.Shop, doc *models.ReviewDocument) string {
	sections := []string{
		headerSection(res, doc),
		contentSection(res, doc),
		summarySection(res, doc),
		customerSection(res, doc),
		insightsSection(res, doc),
		warningsSection(res, doc),
		res.Telegram.Footer,
	}

	var nonEmpty []string
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	message := strings.Join(nonEmpty, "\n\n")

	if len([]rune(message)) > maxChatMessageLen {
		suffix := res.Telegram.TruncatedSuffix
		runes := []rune(message)
		message = string(runes[:maxChatMessageLen-len([]rune(suffix))]) + suffix
	}
	return message
}

func headerSection(res *lang.Resources, doc *models.ReviewDocument) string {
	rating := doc.Source.Rating
	stars := strings.Repeat("⭐", rating)
	sentiment := string(doc.Analysis.Sentiment)
	qualityPct := int(math.Round(doc.Analysis.Quality.QualityScore * 100))

	lines := []string{
		res.Telegram.HeaderTitle,
		"",
		fmt.Sprintf(res.Telegram.StarsLineFormat, stars, rating),
		fmt.Sprintf(res.Telegram.QualityLineFormat,
			res.SentimentEmoji(sentiment), res.SentimentDisplay(sentiment), qualityPct),
	}
	return strings.Join(lines, "\n")
}

func contentSection(res *lang.Resources, doc *models.ReviewDocument) string {
	text := truncate(doc.Processing.ConcatenatedText, 150)
	if text == "" {
		return ""
	}
	section := fmt.Sprintf(res.Telegram.TextSectionFormat, text)

	category := string(doc.Analysis.Category)
	if category != "" {
		line := fmt.Sprintf(res.Telegram.CategoryLineFormat, category)
		if themes := doc.Analysis.KeyThemes; len(themes) > 0 {
			line += " | " + strings.Join(themes[:min(2, len(themes))], " | ")
		}
		section += "\n\n" + line
	}
	return section
}

func summarySection(res *lang.Resources, doc *models.ReviewDocument) string {
	if doc.GeneratedContent == nil || doc.GeneratedContent.Summary == "" {
		return ""
	}
	return fmt.Sprintf(res.Telegram.SummaryLineFormat, doc.GeneratedContent.Summary)
}

func customerSection(res *lang.Resources, doc *models.ReviewDocument) string {
	email := doc.RespondentEmail
	phone := ""
	if v, ok := doc.Source.Fields["phone"].(string); ok {
		phone = strings.TrimSpace(v)
	}
	if email == "" && phone == "" {
		return ""
	}

	lines := []string{res.Telegram.CustomerHeader}
	if email != "" {
		lines = append(lines, fmt.Sprintf(res.Telegram.EmailLineFormat, email))
	}
	if phone != "" {
		lines = append(lines, fmt.Sprintf(res.Telegram.PhoneLineFormat, phone))
	}
	return strings.Join(lines, "\n")
}

// insightsSection surfaces the actionable insights and suggested reply,
// but only for negative reviews; owners act on those first.
func insightsSection(res *lang.Resources, doc *models.ReviewDocument) string {
	if doc.Analysis.Sentiment != models.SentimentNegative || doc.GeneratedContent == nil {
		return ""
	}
	insights := doc.GeneratedContent.ActionableInsights
	reply := doc.GeneratedContent.SuggestedReply
	if len(insights) == 0 && reply == "" {
		return ""
	}

	var parts []string
	if len(insights) > 0 {
		lines := []string{res.Telegram.InsightsHeader}
		for _, insight := range insights[:min(3, len(insights))] {
			lines = append(lines, "• "+insight)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if reply != "" {
		parts = append(parts, fmt.Sprintf(res.Telegram.ReplySectionFormat, truncate(reply, 100)))
	}
	return strings.Join(parts, "\n\n")
}

func warningsSection(res *lang.Resources, doc *models.ReviewDocument) string {
	var warnings []string
	if doc.Processing.IsProfane {
		warnings = append(warnings, "• "+res.Telegram.ProfaneWarning)
	}
	if doc.Analysis.Quality.IsSuspicious {
		warnings = append(warnings, "• "+res.Telegram.SuspiciousWarning)
	}
	if len(warnings) == 0 {
		return ""
	}
	return res.Telegram.WarningsHeader + "\n" + strings.Join(warnings, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
