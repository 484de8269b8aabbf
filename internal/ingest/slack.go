package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

const historyFetchLimit = 100

var (
	ratingRe = regexp.MustCompile(`(?i)(\d+)\s*stars?|rating[:\s]*(\d+)`)

	appStorePrefixRe  = regexp.MustCompile(`(?i)App Store.*?:|iOS.*?:|Rating.*?:|User.*?:|Review.*?:`)
	playStorePrefixRe = regexp.MustCompile(`(?i)Play Store.*?:|Google Play.*?:|Android.*?:|Rating.*?:|User.*?:|Review.*?:`)
)

// SlackIngester polls a review channel for new messages, parses store-review
// formats and upserts them into the message store. When no Slack client is
// available (missing token) it falls back to deterministic mock store
// reviews so the rest of the system stays exercisable.
type SlackIngester struct {
	client        *slackapi.Client
	repo          repository.MessageRepository
	reviewChannel string
	logger        *zap.Logger

	channelID string
}

// NewSlackIngester creates the ingester. client may be nil.
func NewSlackIngester(client *slackapi.Client, repo repository.MessageRepository, reviewChannel string, logger *zap.Logger) *SlackIngester {
	return &SlackIngester{
		client:        client,
		repo:          repo,
		reviewChannel: reviewChannel,
		logger:        logger,
	}
}

// Run fetches messages newer than the store watermark and returns the number
// of new messages stored. Remote failures degrade to the mock review set.
func (i *SlackIngester) Run(ctx context.Context) (int, error) {
	if i.client == nil {
		i.logger.Warn("Slack client unavailable, ingesting mock store reviews")
		return i.ingestMock()
	}

	channelID, err := i.resolveChannel(ctx)
	if err != nil {
		i.logger.Error("Failed to resolve review channel", zap.Error(err))
		return i.ingestMock()
	}

	watermark, err := i.repo.LatestSlackTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to read ingestion watermark: %w", err)
	}

	messages, err := i.client.History(ctx, channelID, watermark, historyFetchLimit)
	if err != nil {
		i.logger.Error("Failed to fetch channel history", zap.Error(err))
		return i.ingestMock()
	}

	newCount := 0
	for _, raw := range messages {
		msg := i.parseMessage(raw, channelID)
		if msg == nil {
			continue
		}
		inserted, err := i.repo.Upsert(msg)
		if err != nil {
			i.logger.Error("Failed to store Slack message",
				zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		if inserted {
			newCount++
		}
	}

	i.logger.Info("Polled review channel",
		zap.String("channel", channelID),
		zap.Int("fetched", len(messages)),
		zap.Int("new", newCount))
	return newCount, nil
}

func (i *SlackIngester) resolveChannel(ctx context.Context) (string, error) {
	if i.channelID != "" {
		return i.channelID, nil
	}
	id, err := i.client.GetChannelID(ctx, i.reviewChannel)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("channel %q not found", i.reviewChannel)
	}
	i.channelID = id
	return id, nil
}

// parseMessage maps a raw channel message into the common message shape, or
// nil when the message carries nothing ingestible (empty text, system
// announcements).
func (i *SlackIngester) parseMessage(raw slackapi.ChannelMessage, channelID string) *models.Message {
	text := strings.TrimSpace(raw.Text)
	if text == "" || strings.HasPrefix(text, "<!") || strings.HasPrefix(text, "<@") {
		return nil
	}

	user := raw.User
	if user == "" {
		user = "unknown"
	}

	var (
		source  models.Source
		id      string
		content string
		rating  *int64
	)

	switch {
	case strings.Contains(text, "App Store") || strings.Contains(text, "iOS"):
		source = models.SourceAppStore
		id = fmt.Sprintf("slack_appstore_%s_%s", raw.TS, user)
		content = strings.TrimSpace(appStorePrefixRe.ReplaceAllString(text, ""))
		rating = extractRating(text)
	case strings.Contains(text, "Play Store") || strings.Contains(text, "Google Play") || strings.Contains(text, "Android"):
		source = models.SourcePlayStore
		id = fmt.Sprintf("slack_playstore_%s_%s", raw.TS, user)
		content = strings.TrimSpace(playStorePrefixRe.ReplaceAllString(text, ""))
		rating = extractRating(text)
	default:
		source = models.SourceSlack
		id = fmt.Sprintf("slack_%s_%s", raw.TS, user)
		content = text
	}

	if content == "" {
		content = text
	}

	url := fmt.Sprintf("slack://channel?id=%s&message=%s", channelID, raw.TS)

	return &models.Message{
		ID:          id,
		Source:      source,
		Platform:    models.PlatformFor(source),
		Content:     content,
		Author:      user,
		AuthorID:    strPtr(user),
		Timestamp:   slackTime(raw.TS),
		URL:         strPtr(url),
		Rating:      rating,
		ChannelID:   strPtr(channelID),
		ChannelName: strPtr(i.reviewChannel),
		ThreadTS:    strPtr(raw.ThreadTS),
	}
}

// ingestMock stores a fixed set of synthetic store reviews with stable ids,
// so repeated fallback runs stay idempotent.
func (i *SlackIngester) ingestMock() (int, error) {
	newCount := 0
	for _, msg := range MockStoreReviews() {
		inserted, err := i.repo.Upsert(msg)
		if err != nil {
			i.logger.Error("Failed to store mock review",
				zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		if inserted {
			newCount++
		}
	}
	return newCount, nil
}

// MockStoreReviews returns the synthetic App Store and Play Store reviews
// used when no Slack client is configured. IDs are stable across runs.
func MockStoreReviews() []*models.Message {
	now := time.Now().UTC()
	reviews := make([]*models.Message, 0, 10)

	for n := 0; n < 5; n++ {
		rating := int64(4)
		if n%2 != 0 {
			rating = 2
		}
		reviews = append(reviews, &models.Message{
			ID:        fmt.Sprintf("slack_appstore_mock_%d", n),
			Source:    models.SourceAppStore,
			Platform:  models.PlatformFor(models.SourceAppStore),
			Content:   fmt.Sprintf("Mock App Store review from Slack %d: Great app, love the new features!", n),
			Author:    fmt.Sprintf("slack_user_%d", n),
			AuthorID:  strPtr(fmt.Sprintf("slack_user_%d", n)),
			Rating:    &rating,
			Timestamp: now,
			URL:       strPtr(fmt.Sprintf("slack://channel?message=mock_%d", n)),
		})
	}

	for n := 0; n < 5; n++ {
		rating := int64(2)
		if n%2 != 0 {
			rating = 5
		}
		reviews = append(reviews, &models.Message{
			ID:        fmt.Sprintf("slack_playstore_mock_%d", n),
			Source:    models.SourcePlayStore,
			Platform:  models.PlatformFor(models.SourcePlayStore),
			Content:   fmt.Sprintf("Mock Play Store review from Slack %d: App crashes sometimes, needs fixing.", n),
			Author:    fmt.Sprintf("slack_user_%d", n+5),
			AuthorID:  strPtr(fmt.Sprintf("slack_user_%d", n+5)),
			Rating:    &rating,
			Timestamp: now,
			URL:       strPtr(fmt.Sprintf("slack://channel?message=mock_%d", n+5)),
		})
	}

	return reviews
}

func extractRating(text string) *int64 {
	match := ratingRe.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	for _, group := range match[1:] {
		if group == "" {
			continue
		}
		if v, err := strconv.ParseInt(group, 10, 64); err == nil {
			return &v
		}
	}
	return nil
}

// slackTime converts a Slack "seconds.micros" timestamp into a time.Time.
func slackTime(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(int64(seconds), int64((seconds-float64(int64(seconds)))*1e9)).UTC()
}
