package models

import "time"

// Source identifies where a message was ingested from.
type Source string

const (
	SourceReddit    Source = "reddit"
	SourceSlack     Source = "slack"
	SourceAppStore  Source = "app_store"
	SourcePlayStore Source = "play_store"
	SourceTwitter   Source = "twitter"
	SourceWeb       Source = "web"
	SourceEmail     Source = "email"
	SourceOther     Source = "other"
)

// Sentiment is the sentiment label attached during processing.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Severity is the derived severity tier of a message.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PlatformFor maps a source to its display platform.
func PlatformFor(source Source) string {
	switch source {
	case SourceAppStore:
		return "ios"
	case SourcePlayStore:
		return "android"
	default:
		return string(source)
	}
}

// Message represents a row in the 'messages' table. The id is globally
// unique and source-prefixed (e.g. "reddit_<postid>", "slack_<ts>_<user>")
// and is immutable once created.
type Message struct {
	ID       string `db:"id"`
	Source   Source `db:"source"`
	Platform string `db:"platform"`

	Content  string  `db:"content"`
	Title    *string `db:"title"`
	Author   string  `db:"author"`
	AuthorID *string `db:"author_id"`
	// Timestamp is the original creation time at the source.
	Timestamp  time.Time `db:"timestamp"`
	CreatedUTC *float64  `db:"created_utc"`
	URL        *string   `db:"url"`
	Permalink  *string   `db:"permalink"`

	// Reddit-specific fields.
	Subreddit   *string `db:"subreddit"`
	Score       *int64  `db:"score"`
	NumComments *int64  `db:"num_comments"`
	IsSelf      *bool   `db:"is_self"`
	Over18      *bool   `db:"over_18"`
	Selftext    *string `db:"selftext"`

	// Store-review-specific fields.
	Rating     *int64  `db:"rating"`
	AppVersion *string `db:"app_version"`
	DeviceInfo *string `db:"device_info"`

	// Slack-specific fields.
	ChannelID   *string `db:"channel_id"`
	ChannelName *string `db:"channel_name"`
	ThreadTS    *string `db:"thread_ts"`
	ReplyCount  *int64  `db:"reply_count"`

	// Twitter-specific fields.
	RetweetCount  *int64  `db:"retweet_count"`
	FavoriteCount *int64  `db:"favorite_count"`
	Hashtags      *string `db:"hashtags"`
	Mentions      *string `db:"mentions"`

	// Processing annotations, nullable until the pipeline sets them.
	Language            *string    `db:"language"`
	Sentiment           *Sentiment `db:"sentiment"`
	Category            *string    `db:"category"`
	Severity            *Severity  `db:"severity"`
	BusinessImpactScore *float64   `db:"business_impact_score"`
	PIIDetected         bool       `db:"pii_detected"`
	Processed           bool       `db:"processed"`

	RawData *string `db:"raw_data"`
	Tags    *string `db:"tags"`
	Notes   *string `db:"notes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FullText returns title and content combined, the text classification runs on.
func (m *Message) FullText() string {
	if m.Title != nil && *m.Title != "" {
		return *m.Title + "\n" + m.Content
	}
	return m.Content
}
