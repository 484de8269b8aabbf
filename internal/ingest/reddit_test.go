package ingest

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/redditapi"
)

func newRedditIngester(keywords []string) *RedditIngester {
	return NewRedditIngester(nil, nil, []string{"Earnin"}, keywords, 25, time.Millisecond, zap.NewNop())
}

func TestIsRelevant(t *testing.T) {
	ing := newRedditIngester([]string{"earnin", "cash out"})

	tests := []struct {
		name string
		post redditapi.Post
		want bool
	}{
		{"keyword in title", redditapi.Post{Title: "EarnIn froze my account"}, true},
		{"keyword in selftext", redditapi.Post{Title: "question", Selftext: "how does cash out work?"}, true},
		{"no keyword", redditapi.Post{Title: "best budgeting tips", Selftext: "track everything"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ing.isRelevant(tt.post); got != tt.want {
				t.Errorf("isRelevant(%q) = %v, want %v", tt.post.Title, got, tt.want)
			}
		})
	}
}

func TestIsRelevantEmptyKeywordListAdmitsEverything(t *testing.T) {
	ing := newRedditIngester(nil)
	if !ing.isRelevant(redditapi.Post{Title: "anything at all"}) {
		t.Error("empty keyword list should admit every post")
	}
}

func TestToMessage(t *testing.T) {
	ing := newRedditIngester(nil)
	post := redditapi.Post{
		ID:          "1abc2d",
		Title:       "EarnIn cash out delayed",
		Author:      "throwaway99",
		Subreddit:   "Earnin",
		URL:         "https://reddit.com/r/Earnin/comments/1abc2d",
		Selftext:    "been waiting two days for my transfer",
		Score:       14,
		NumComments: 3,
		CreatedUTC:  1756600000,
		Permalink:   "/r/Earnin/comments/1abc2d/earnin_cash_out_delayed/",
		IsSelf:      true,
	}

	msg := ing.toMessage(post)

	if msg.ID != "reddit_1abc2d" {
		t.Errorf("id = %q", msg.ID)
	}
	if msg.Source != models.SourceReddit {
		t.Errorf("source = %q", msg.Source)
	}
	if msg.Content != "been waiting two days for my transfer" {
		t.Errorf("content = %q, want the selftext", msg.Content)
	}
	if msg.Title == nil || *msg.Title != post.Title {
		t.Error("title not carried over")
	}
	if msg.Subreddit == nil || *msg.Subreddit != "Earnin" {
		t.Error("subreddit not carried over")
	}
	if msg.Permalink == nil || *msg.Permalink != "https://reddit.com"+post.Permalink {
		t.Error("permalink not expanded to an absolute URL")
	}
	if got := msg.Timestamp.Unix(); got != 1756600000 {
		t.Errorf("timestamp = %d, want 1756600000", got)
	}
	if msg.RawData == nil {
		t.Error("raw payload not preserved")
	}
	if msg.Processed {
		t.Error("new messages must start unprocessed")
	}
}

func TestToMessageLinkPostFallsBackToTitle(t *testing.T) {
	ing := newRedditIngester(nil)
	post := redditapi.Post{ID: "xyz", Title: "EarnIn review thread", Author: "mod"}

	msg := ing.toMessage(post)

	if msg.Content != "EarnIn review thread" {
		t.Errorf("content = %q, want the title for link posts", msg.Content)
	}
	if msg.Selftext != nil {
		t.Error("empty selftext should stay null")
	}
}
