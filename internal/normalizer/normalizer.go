// Package normalizer cleans raw message text, tags a best-effort language
// and detects/redacts personally identifiable information. All functions are
// pure and perform no I/O.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^\w\s.,!?\-@#]`)

	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	cardRe  = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
)

// English stop words used by the language heuristic.
var englishWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "to": {},
	"of": {}, "a": {}, "that": {}, "it": {}, "with": {},
}

// Result holds the outcome of normalizing a raw text.
type Result struct {
	Content     string
	Language    string
	PIIDetected bool
}

// Normalize cleans the text, tags its language and redacts any PII found.
// The returned Content is safe to persist and display downstream.
func Normalize(raw string) Result {
	content := Clean(raw)

	res := Result{
		Content:  content,
		Language: DetectLanguage(content),
	}

	if DetectPII(content) {
		res.PIIDetected = true
		res.Content = StripPII(content)
	}

	return res
}

// Clean collapses whitespace runs, trims the text and removes characters
// outside a conservative allow-list (word chars, basic punctuation, @#).
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return disallowedRe.ReplaceAllString(text, "")
}

// DetectLanguage tags text "en" when more than 10% of its tokens are common
// English stop words, "unknown" otherwise. Best-effort heuristic, not a
// general-purpose detector.
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return "unknown"
	}

	count := 0
	for _, w := range words {
		if _, ok := englishWords[w]; ok {
			count++
		}
	}

	if float64(count) > float64(len(words))*0.1 {
		return "en"
	}
	return "unknown"
}

// DetectPII reports whether the text contains an email address, a 10-digit
// phone number or a 16-digit card-like number.
func DetectPII(text string) bool {
	return emailRe.MatchString(text) || phoneRe.MatchString(text) || cardRe.MatchString(text)
}

// StripPII replaces each matched PII span with a placeholder token.
func StripPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = cardRe.ReplaceAllString(text, "[CARD]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}
