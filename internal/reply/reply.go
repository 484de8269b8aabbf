// Package reply posts automatic threaded replies to user messages in the
// all-feedback channel, choosing a template by sentiment and attaching a
// deterministic tracking ticket to negative feedback.
package reply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

const (
	positiveReply = "Thank you for your kind words! I'm glad you found our app helpful and appreciate your feedback!"
	neutralReply  = "Thank you for your feedback! We appreciate you taking the time to share your thoughts with us."
	// negativeReplyTemplate interpolates the tracking ticket twice: once in
	// the body and once in the tracking URL.
	negativeReplyTemplate = "Thank you for your feedback! We're a customer-centric organization and truly appreciate you sharing your concern. We've logged it as %s, and our team is actively working on it. You can track your ticket's progress here: https://jira.example.com/browse/%s."
)

// SlackAPI is the subset of the Slack client the responder needs.
type SlackAPI interface {
	History(ctx context.Context, channelID string, oldest time.Time, limit int) ([]slackapi.ChannelMessage, error)
	PostMessage(ctx context.Context, params slackapi.PostParams) (slackapi.PostResult, error)
	ValidateChannel(ctx context.Context, channelID string) bool
}

// Result records the outcome of one reply attempt.
type Result struct {
	OriginalTS string
	ReplyTS    string
	Ticket     string
	Sentiment  models.Sentiment
}

// Responder watches the all-feedback channel and replies to new user
// messages at most once each. The classifier must be built with the
// deterministic ticket issuer so a message keeps its ticket across restarts.
type Responder struct {
	api        SlackAPI
	classifier *classifier.Classifier
	log        *repository.ReplyLog
	channelID  string
	itemDelay  time.Duration
	logger     *zap.Logger
}

func NewResponder(api SlackAPI, cls *classifier.Classifier, log *repository.ReplyLog, channelID string, itemDelay time.Duration, logger *zap.Logger) *Responder {
	return &Responder{
		api:        api,
		classifier: cls,
		log:        log,
		channelID:  channelID,
		itemDelay:  itemDelay,
		logger:     logger,
	}
}

// Run checks up to limit recent channel messages and replies to the eligible
// ones. The replied-set is only appended after a successful post, so a post
// failure leaves the message eligible for the next cycle.
func (r *Responder) Run(ctx context.Context, limit int) ([]Result, error) {
	if !r.api.ValidateChannel(ctx, r.channelID) {
		return nil, fmt.Errorf("cannot access channel %s", r.channelID)
	}

	messages, err := r.api.History(ctx, r.channelID, time.Time{}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel history: %w", err)
	}

	var results []Result
	for _, msg := range messages {
		if !r.shouldReply(msg) {
			continue
		}

		if len(results) > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(r.itemDelay):
			}
		}

		res, err := r.replyTo(ctx, msg)
		if err != nil {
			r.logger.Error("Failed to reply to message",
				zap.String("ts", msg.TS), zap.Error(err))
			continue
		}
		results = append(results, res)
	}

	r.logger.Info("Reply pass completed",
		zap.Int("checked", len(messages)), zap.Int("replied", len(results)))
	return results, nil
}

// shouldReply filters out bot messages, empty messages and messages that
// already received a reply.
func (r *Responder) shouldReply(msg slackapi.ChannelMessage) bool {
	if r.log.Contains(msg.TS) {
		return false
	}
	if msg.BotID != "" || msg.Subtype == "bot_message" {
		return false
	}
	if msg.Text == "" {
		return false
	}
	// Bot user IDs start with B.
	if strings.HasPrefix(msg.User, "B") {
		return false
	}
	return true
}

func (r *Responder) replyTo(ctx context.Context, msg slackapi.ChannelMessage) (Result, error) {
	classification := r.classifier.Classify(msg.Text, msg.TS)

	var replyText string
	switch classification.Sentiment {
	case models.SentimentPositive:
		replyText = positiveReply
	case models.SentimentNegative:
		replyText = fmt.Sprintf(negativeReplyTemplate, classification.Ticket, classification.Ticket)
	default:
		replyText = neutralReply
	}

	post, err := r.api.PostMessage(ctx, slackapi.PostParams{
		Channel:  r.channelID,
		Text:     replyText,
		ThreadTS: msg.TS,
	})
	if err != nil {
		return Result{}, err
	}
	if !post.Success {
		return Result{}, fmt.Errorf("reply rejected: %s", post.Error)
	}

	if err := r.log.Add(msg.TS); err != nil {
		// The reply went out; a log write failure risks a duplicate next
		// cycle but must not fail the pass.
		r.logger.Error("Failed to record replied message",
			zap.String("ts", msg.TS), zap.Error(err))
	}

	if classification.Channel != "" {
		r.mirrorToClassificationChannel(ctx, msg, classification)
	}

	return Result{
		OriginalTS: msg.TS,
		ReplyTS:    post.MessageTS,
		Ticket:     classification.Ticket,
		Sentiment:  classification.Sentiment,
	}, nil
}

// mirrorToClassificationChannel posts the classified message to its routed
// channel. Best effort; failures are logged only.
func (r *Responder) mirrorToClassificationChannel(ctx context.Context, msg slackapi.ChannelMessage, classification classifier.Result) {
	excerpt := msg.Text
	if len(excerpt) > 1000 {
		excerpt = excerpt[:1000]
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("New Feedback - %s", classification.Ticket),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Category:* %s\n*Sub-category:* %s\n*Ticket:* %s\n*Sentiment:* %s",
					classification.Level1, classification.Level2, classification.Ticket, classification.Sentiment),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Original User:* <@%s>\n*Source:* all-feedback channel", msg.User),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Original Message:*\n```%s```", excerpt),
			},
		},
	}

	res, err := r.api.PostMessage(ctx, slackapi.PostParams{
		Channel: classification.Channel,
		Text:    fmt.Sprintf("New feedback classified as %s", classification.Level1),
		Blocks:  blocks,
	})
	if err != nil {
		r.logger.Error("Failed to mirror classification",
			zap.String("channel", classification.Channel), zap.Error(err))
		return
	}
	if !res.Success {
		r.logger.Error("Classification mirror rejected",
			zap.String("channel", classification.Channel), zap.String("error", res.Error))
	}
}
