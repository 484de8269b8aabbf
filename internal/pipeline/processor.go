// Package pipeline moves stored messages from unprocessed to processed:
// normalize, classify, score, post to the destination channel and annotate
// the row. One logical worker, oldest first.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/impact"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/normalizer"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

// Poster is the subset of the Slack client the pipeline posts through.
type Poster interface {
	PostMessage(ctx context.Context, params slackapi.PostParams) (slackapi.PostResult, error)
	ValidateChannel(ctx context.Context, channelID string) bool
}

// CycleStats summarizes one processing cycle. Skipped counts messages whose
// classification resolved to no destination channel.
type CycleStats struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Processor runs the classification pipeline over the message store.
type Processor struct {
	repo       repository.MessageRepository
	classifier *classifier.Classifier
	poster     Poster
	itemDelay  time.Duration
	logger     *zap.Logger
}

// New creates a processor. poster may be nil, in which case classification
// and storage still happen but nothing is published.
func New(repo repository.MessageRepository, cls *classifier.Classifier, poster Poster, itemDelay time.Duration, logger *zap.Logger) *Processor {
	return &Processor{
		repo:       repo,
		classifier: cls,
		poster:     poster,
		itemDelay:  itemDelay,
		logger:     logger,
	}
}

// RunCycle processes up to batchSize unprocessed messages (0 = all), oldest
// first. Items are handled sequentially with a short delay between them; a
// failing item is counted and logged, never aborts the batch. A cycle with
// no pending messages performs no store writes.
func (p *Processor) RunCycle(ctx context.Context, batchSize int) (CycleStats, error) {
	runID := uuid.NewString()
	stats := CycleStats{}

	messages, err := p.repo.GetUnprocessed(batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch unprocessed messages: %w", err)
	}

	stats.Total = len(messages)
	if stats.Total == 0 {
		p.logger.Info("No messages to process", zap.String("run_id", runID))
		return stats, nil
	}

	p.logger.Info("Starting processing cycle",
		zap.String("run_id", runID), zap.Int("batch", stats.Total))

	for idx, msg := range messages {
		if idx > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(p.itemDelay):
			}
		}

		posted, err := p.processOne(ctx, msg)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", msg.ID, err))
			p.logger.Error("Failed to process message",
				zap.String("run_id", runID), zap.String("id", msg.ID), zap.Error(err))
			continue
		}

		stats.Successful++
		if !posted {
			stats.Skipped++
		}
	}

	p.logger.Info("Processing cycle completed",
		zap.String("run_id", runID),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// processOne classifies and annotates a single message. It reports whether a
// channel post was made. The message is marked processed even when the post
// fails; posting is at-most-one-attempt, not retry-until-success.
func (p *Processor) processOne(ctx context.Context, msg *models.Message) (bool, error) {
	norm := normalizer.Normalize(msg.Content)
	result := p.classifier.Classify(msg.FullText(), msg.ID)

	category := impact.Categorize(msg.FullText())
	signals := impact.Signals{
		Rating:      msg.Rating,
		Sentiment:   result.Sentiment,
		Category:    category,
		PIIDetected: norm.PIIDetected,
	}
	severity := impact.SeverityFor(signals)
	score := impact.ScoreFor(signals, severity)

	posted := false
	if result.Channel != "" && p.poster != nil && p.poster.ValidateChannel(ctx, result.Channel) {
		postCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res, err := p.poster.PostMessage(postCtx, slackapi.PostParams{
			Channel: result.Channel,
			Text:    fmt.Sprintf("New feedback classified as %s", result.Level1),
			Blocks:  feedbackBlocks(msg, result, severity, score),
		})
		cancel()
		if err != nil {
			p.logger.Error("Failed to post classification",
				zap.String("id", msg.ID), zap.String("channel", result.Channel), zap.Error(err))
		} else if !res.Success {
			p.logger.Error("Classification post rejected",
				zap.String("id", msg.ID), zap.String("channel", result.Channel), zap.String("error", res.Error))
		} else {
			posted = true
		}
	}

	err := p.repo.MarkProcessed(msg.ID, repository.Annotations{
		Content:             norm.Content,
		Language:            norm.Language,
		Sentiment:           result.Sentiment,
		Category:            string(result.Level1),
		Severity:            severity,
		BusinessImpactScore: score,
		PIIDetected:         norm.PIIDetected,
	})
	if err != nil {
		return posted, fmt.Errorf("failed to mark processed: %w", err)
	}

	return posted, nil
}

// feedbackBlocks renders the rich Slack message for a classified item.
func feedbackBlocks(msg *models.Message, result classifier.Result, severity models.Severity, score float64) []map[string]any {
	excerpt := msg.Content
	if len(excerpt) > 1000 {
		excerpt = excerpt[:1000]
	}

	classification := fmt.Sprintf("*Category:* %s\n*Sub-category:* %s\n*Sentiment:* %s\n*Severity:* %s\n*Impact:* %.2f\n*Ticket:* %s",
		result.Level1, result.Level2, result.Sentiment, severity, score, result.Ticket)
	source := fmt.Sprintf("*Source:* %s\n*Author:* %s\n*Time:* %s",
		msg.Source, msg.Author, msg.Timestamp.Format(time.RFC3339))

	return []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("New Feedback - %s", result.Ticket),
			},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": classification},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": source},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Original Message:*\n```%s```", excerpt)},
		},
	}
}
