// Package impact derives a coarse feedback category, a severity tier and a
// bounded business impact score from a message's signals. Pure additive
// models, no I/O.
package impact

import (
	"strings"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
)

// Category is the coarse feedback type used by the severity and impact
// models. It is independent of the routing taxonomy.
type Category string

const (
	CategoryBug            Category = "bug"
	CategoryFeatureRequest Category = "feature_request"
	CategoryComplaint      Category = "complaint"
	CategoryPraise         Category = "praise"
	CategoryQuestion       Category = "question"
	CategorySpam           Category = "spam"
	CategoryOther          Category = "other"
)

// categoryKeywords is scanned in order; the first category with a match wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryBug, []string{"bug", "error", "crash", "broken", "not working", "issue", "problem"}},
	{CategoryFeatureRequest, []string{"feature", "add", "want", "need", "suggest", "request"}},
	{CategoryComplaint, []string{"hate", "terrible", "awful", "worst", "disappointed", "angry"}},
	{CategoryPraise, []string{"love", "great", "awesome", "amazing", "excellent", "perfect"}},
	{CategoryQuestion, []string{"how", "what", "why", "when", "where", "?"}},
	{CategorySpam, []string{"buy", "sell", "promo", "discount", "click here"}},
}

// Categorize assigns the coarse category from fixed keyword lists.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// Signals are the inputs to the severity and impact models.
type Signals struct {
	Rating      *int64
	Sentiment   models.Sentiment
	Category    Category
	PIIDetected bool
}

// SeverityFor buckets an additive score over the signals into the four
// fixed severity tiers.
func SeverityFor(s Signals) models.Severity {
	score := 0

	if s.Rating != nil {
		if *s.Rating <= 2 {
			score += 3
		} else if *s.Rating == 3 {
			score++
		}
	}

	switch s.Sentiment {
	case models.SentimentNegative:
		score += 2
	case models.SentimentPositive:
		score--
	}

	switch s.Category {
	case CategoryBug:
		score += 2
	case CategoryComplaint:
		score++
	}

	if s.PIIDetected {
		score++
	}

	switch {
	case score >= 4:
		return models.SeverityCritical
	case score >= 2:
		return models.SeverityHigh
	case score >= 1:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ScoreFor combines rating, sentiment, category, severity and the PII flag
// into a business impact score clamped to [0,1].
func ScoreFor(s Signals, severity models.Severity) float64 {
	score := 0.0

	if s.Rating != nil {
		score += float64(5-*s.Rating) * 0.2
	}

	switch s.Sentiment {
	case models.SentimentNegative:
		score += 0.3
	case models.SentimentPositive:
		score -= 0.1
	}

	switch s.Category {
	case CategoryBug:
		score += 0.4
	case CategoryComplaint:
		score += 0.3
	case CategoryFeatureRequest:
		score += 0.1
	}

	switch severity {
	case models.SeverityCritical:
		score += 0.5
	case models.SeverityHigh:
		score += 0.3
	case models.SeverityMedium:
		score += 0.1
	}

	if s.PIIDetected {
		score += 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
