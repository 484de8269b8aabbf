// Package classifier implements the deterministic keyword-weighted two-level
// feedback classifier. It maps free-form text to a Level1/Level2 category
// pair, a sentiment label, a destination Slack channel and a tracking ticket.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
)

const (
	// Minimum normalized Level1 score; below it the message falls back to
	// General Sentiment or Non-relevant.
	level1Epsilon = 0.02
	// Minimum normalized Level2 score before the default Level1->Level2
	// mapping takes over.
	level2Epsilon = 0.1
)

var spaceRe = regexp.MustCompile(`\s+`)

// Result is the immutable outcome of a classification. A new attempt
// produces a new Result; it never edits a previous one.
type Result struct {
	Level1     Level1
	Level2     Level2
	Channel    string
	Ticket     string
	Sentiment  models.Sentiment
	Confidence float64
	Reasoning  string
}

// Classifier scores message text against a fixed taxonomy. It is pure and
// safe for reuse across calls; all mutable state lives in the TicketIssuer.
type Classifier struct {
	tax    *Taxonomy
	issuer TicketIssuer
}

// New creates a classifier over the given taxonomy. The issuer decides the
// ticket policy: deterministic for idempotent call sites (replies), random
// for one-off classification.
func New(tax *Taxonomy, issuer TicketIssuer) *Classifier {
	return &Classifier{tax: tax, issuer: issuer}
}

// Classify classifies text and issues a ticket keyed by key. The key is only
// meaningful for deterministic issuers; random issuers ignore it.
func (c *Classifier) Classify(text, key string) Result {
	cleaned := spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")

	if cleaned == "" {
		return Result{
			Level1:     L1NonRelevant,
			Level2:     L2NonRelevant,
			Channel:    "",
			Ticket:     c.issuer.Issue(key),
			Sentiment:  models.SentimentNeutral,
			Confidence: 0.0,
			Reasoning:  "empty message",
		}
	}

	sentiment, confidence, sentimentReason := c.analyzeSentiment(cleaned)
	level1 := c.classifyLevel1(cleaned)
	level2 := c.classifyLevel2(cleaned, level1)

	return Result{
		Level1:     level1,
		Level2:     level2,
		Channel:    c.tax.Channels[level2],
		Ticket:     c.issuer.Issue(key),
		Sentiment:  sentiment,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("L1: %s, L2: %s, sentiment: %s (%s)", level1, level2, sentiment, sentimentReason),
	}
}

// analyzeSentiment scans for problem phrases first; any hit forces negative
// sentiment with a fixed 0.8 confidence, bypassing the keyword tally. These
// phrases are highly predictive and must dominate simple word counts.
func (c *Classifier) analyzeSentiment(text string) (models.Sentiment, float64, string) {
	for _, phrase := range c.tax.ProblemPhrases {
		if strings.Contains(text, phrase) {
			return models.SentimentNegative, 0.8, fmt.Sprintf("problem phrase %q", phrase)
		}
	}

	positive := countMatches(text, c.tax.PositiveKeywords)
	negative := countMatches(text, c.tax.NegativeKeywords)
	total := positive + negative

	switch {
	case total == 0:
		return models.SentimentNeutral, 0.3, "no clear sentiment indicators"
	case positive > negative:
		conf := clamp01(float64(positive) / float64(total))
		return models.SentimentPositive, conf, fmt.Sprintf("%d positive vs %d negative keywords", positive, negative)
	case negative > positive:
		conf := clamp01(float64(negative) / float64(total))
		return models.SentimentNegative, conf, fmt.Sprintf("%d negative vs %d positive keywords", negative, positive)
	default:
		return models.SentimentNeutral, 0.4, fmt.Sprintf("mixed sentiment, %d keywords each", positive)
	}
}

func (c *Classifier) classifyLevel1(text string) Level1 {
	var (
		best      Level1
		bestScore float64
	)

	for _, category := range c.tax.Level1Order {
		keywords := c.tax.Level1Keywords[category]
		if len(keywords) == 0 {
			continue
		}
		score := c.scoreKeywords(text, keywords) / float64(len(keywords))
		// Strictly greater: ties resolve to the earlier category in the
		// priority order.
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	if bestScore < level1Epsilon {
		if countMatches(text, c.tax.PositiveKeywords)+countMatches(text, c.tax.NegativeKeywords) > 0 {
			return L1GeneralSentiment
		}
		return L1NonRelevant
	}

	return best
}

func (c *Classifier) classifyLevel2(text string, level1 Level1) Level2 {
	if level1 == L1NonRelevant || level1 == L1GeneralSentiment {
		return L2NonRelevant
	}

	valid := make(map[Level2]struct{}, len(c.tax.ValidLevel2[level1]))
	for _, l2 := range c.tax.ValidLevel2[level1] {
		valid[l2] = struct{}{}
	}

	var (
		best      Level2
		bestScore float64
	)

	for _, category := range c.tax.Level2Order {
		if _, ok := valid[category]; !ok {
			continue
		}
		keywords := c.tax.Level2Keywords[category]
		if len(keywords) == 0 {
			continue
		}
		score := c.scoreKeywords(text, keywords) / float64(len(keywords))
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	if bestScore < level2Epsilon {
		if fallback, ok := c.tax.DefaultLevel2[level1]; ok {
			return fallback
		}
		return L2NonRelevant
	}

	return best
}

// scoreKeywords sums the weights of all keywords present in text. Longer
// phrases weigh more; high-signal and generic problem terms are boosted.
func (c *Classifier) scoreKeywords(text string, keywords []string) float64 {
	var score float64
	for _, keyword := range keywords {
		if !strings.Contains(text, keyword) {
			continue
		}
		weight := 0.2*float64(len(strings.Fields(keyword))) + 0.3
		if _, ok := c.tax.HighSignalTerms[keyword]; ok {
			weight *= 2.0
		} else if _, ok := c.tax.ProblemTerms[keyword]; ok {
			weight *= 1.5
		}
		score += weight
	}
	return score
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			count++
		}
	}
	return count
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
