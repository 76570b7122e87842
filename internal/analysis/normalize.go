// Package analysis holds the review classifiers and scorers: text
// normalization, quality scoring, toxicity, sentiment, relevancy, and the
// AI enricher.
package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize cleans arbitrary input into the canonical form the classifiers
// run on: NFKC, Arabic diacritics and tatweel stripped, alef variants
// folded, characters outside the allow-set dropped, character runs capped
// at two, whitespace collapsed. Idempotent and total over any input.
func Normalize(s string) string {
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isArabicDiacritic(r) || r == tatweel {
			continue
		}
		r = foldAlef(r)
		if !allowed(r) {
			continue
		}
		b.WriteRune(r)
	}

	return collapseWhitespace(capRuns(b.String()))
}

const tatweel = 'ـ'

func foldAlef(r rune) rune {
	switch r {
	case 'أ', 'إ', 'آ':
		return 'ا'
	}
	return r
}

// isArabicDiacritic covers the combining marks used for Arabic vowelization.
func isArabicDiacritic(r rune) bool {
	switch {
	case r >= 0x0610 && r <= 0x061A:
		return true
	case r >= 0x064B && r <= 0x065F:
		return true
	case r == 0x0670:
		return true
	case r >= 0x06D6 && r <= 0x06ED:
		return true
	}
	return false
}

// allowed is the character allow-set: Latin letters, digits, Arabic letters,
// whitespace, common punctuation, and emoji ranges.
func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	case r >= 0x0600 && r <= 0x06FF, r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0xFB50 && r <= 0xFDFF, r >= 0xFE70 && r <= 0xFEFF:
		return true
	case strings.ContainsRune(`.,!?;:()[]'"-_/@#%&*+=~`, r):
		return true
	case r == '،' || r == '؛' || r == '؟' || r == '…':
		return true
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x2B50 || r == 0xFE0F || r == 0x200D:
		return true
	}
	return false
}

// capRuns shortens any run of one repeated character to at most two.
// Applied after filtering so dropped characters cannot re-create runs.
func capRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	count := 0
	for _, r := range s {
		if r == prev {
			count++
			if count > 2 {
				continue
			}
		} else {
			prev, count = r, 1
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
