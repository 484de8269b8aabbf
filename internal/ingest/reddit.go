// Package ingest contains the source adapters that pull external items into
// the message store. Adapters only ever insert-or-update by id; the processed
// flag belongs to the pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/redditapi"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
)

// RedditIngester polls configured subreddits for new posts, filters them for
// relevance and upserts matches into the message store.
type RedditIngester struct {
	client     *redditapi.Client
	repo       repository.MessageRepository
	subreddits []string
	keywords   []string
	fetchLimit int
	delay      time.Duration
	logger     *zap.Logger
}

func NewRedditIngester(
	client *redditapi.Client,
	repo repository.MessageRepository,
	subreddits, keywords []string,
	fetchLimit int,
	delay time.Duration,
	logger *zap.Logger,
) *RedditIngester {
	return &RedditIngester{
		client:     client,
		repo:       repo,
		subreddits: subreddits,
		keywords:   keywords,
		fetchLimit: fetchLimit,
		delay:      delay,
		logger:     logger,
	}
}

// Run polls every configured subreddit once and returns the number of new
// messages stored. A failed subreddit fetch is logged and skipped; it never
// aborts the remaining subreddits.
func (i *RedditIngester) Run(ctx context.Context) (int, error) {
	newCount := 0

	for idx, subreddit := range i.subreddits {
		if idx > 0 {
			select {
			case <-ctx.Done():
				return newCount, ctx.Err()
			case <-time.After(i.delay):
			}
		}

		posts, err := i.client.FetchNew(ctx, subreddit, i.fetchLimit)
		if err != nil {
			i.logger.Error("Failed to fetch subreddit",
				zap.String("subreddit", subreddit), zap.Error(err))
			continue
		}

		relevant := 0
		for _, post := range posts {
			if !i.isRelevant(post) {
				continue
			}
			relevant++

			msg := i.toMessage(post)
			inserted, err := i.repo.Upsert(msg)
			if err != nil {
				i.logger.Error("Failed to store Reddit post",
					zap.String("id", msg.ID), zap.Error(err))
				continue
			}
			if inserted {
				newCount++
			}
		}

		i.logger.Info("Polled subreddit",
			zap.String("subreddit", subreddit),
			zap.Int("fetched", len(posts)),
			zap.Int("relevant", relevant))
	}

	return newCount, nil
}

// isRelevant checks title and selftext against the configured keyword list.
// An empty list admits everything.
func (i *RedditIngester) isRelevant(post redditapi.Post) bool {
	if len(i.keywords) == 0 {
		return true
	}
	text := strings.ToLower(post.Title + " " + post.Selftext)
	for _, keyword := range i.keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (i *RedditIngester) toMessage(post redditapi.Post) *models.Message {
	content := post.Selftext
	if content == "" {
		content = post.Title
	}

	permalink := "https://reddit.com" + post.Permalink
	createdUTC := post.CreatedUTC

	msg := &models.Message{
		ID:          fmt.Sprintf("reddit_%s", post.ID),
		Source:      models.SourceReddit,
		Platform:    models.PlatformFor(models.SourceReddit),
		Content:     content,
		Title:       strPtr(post.Title),
		Author:      post.Author,
		AuthorID:    strPtr(post.Author),
		Timestamp:   time.Unix(int64(post.CreatedUTC), 0).UTC(),
		CreatedUTC:  &createdUTC,
		URL:         strPtr(post.URL),
		Permalink:   strPtr(permalink),
		Subreddit:   strPtr(post.Subreddit),
		Score:       int64Ptr(post.Score),
		NumComments: int64Ptr(post.NumComments),
		IsSelf:      boolPtr(post.IsSelf),
		Over18:      boolPtr(post.Over18),
		Selftext:    strPtr(post.Selftext),
	}

	if raw, err := json.Marshal(post); err == nil {
		msg.RawData = strPtr(string(raw))
	}

	return msg
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }
