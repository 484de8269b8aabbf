package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
)

// Annotations are the processing results projected onto a message row when
// the pipeline marks it processed.
type Annotations struct {
	Content             string
	Language            string
	Sentiment           models.Sentiment
	Category            string
	Severity            models.Severity
	BusinessImpactScore float64
	PIIDetected         bool
}

// Stats summarizes the message store.
type Stats struct {
	TotalMessages       int64            `json:"total_messages"`
	ProcessedMessages   int64            `json:"processed_messages"`
	UnprocessedMessages int64            `json:"unprocessed_messages"`
	BySource            map[string]int64 `json:"by_source"`
	BySentiment         map[string]int64 `json:"by_sentiment"`
	ByCategory          map[string]int64 `json:"by_category"`
	RecentMessages24h   int64            `json:"recent_messages_24h"`
}

type MessageRepository interface {
	// Upsert inserts the message or refreshes its mutable fields when the
	// id already exists. It never resets the processed flag. Returns true
	// when a new row was created.
	Upsert(msg *models.Message) (bool, error)
	GetUnprocessed(limit int) ([]*models.Message, error)
	MarkProcessed(id string, ann Annotations) error
	RecentProcessed(limit int) ([]*models.Message, error)
	// LatestSlackTimestamp returns the original timestamp of the newest
	// Slack-ingested message, used as the ingestion watermark.
	LatestSlackTimestamp() (time.Time, error)
	Stats() (*Stats, error)
}

type messageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) MessageRepository {
	return &messageRepository{db: db, logger: logger}
}

func (r *messageRepository) Upsert(msg *models.Message) (bool, error) {
	var exists bool
	if err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)`, msg.ID); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	msg.UpdatedAt = now

	if exists {
		// Refresh volatile source fields only; classification annotations
		// and the processed flag belong to the pipeline.
		_, err := r.db.NamedExec(`
			UPDATE messages SET
				content = :content, title = :title, score = :score,
				num_comments = :num_comments, reply_count = :reply_count,
				raw_data = :raw_data, updated_at = :updated_at
			WHERE id = :id`, msg)
		return false, err
	}

	msg.CreatedAt = now
	_, err := r.db.NamedExec(`
		INSERT INTO messages (
			id, source, platform, content, title, author, author_id,
			timestamp, created_utc, url, permalink, subreddit, score,
			num_comments, is_self, over_18, selftext, rating, app_version,
			device_info, channel_id, channel_name, thread_ts, reply_count,
			retweet_count, favorite_count, hashtags, mentions, language,
			sentiment, category, severity, business_impact_score,
			pii_detected, processed, raw_data, tags, notes, created_at, updated_at
		) VALUES (
			:id, :source, :platform, :content, :title, :author, :author_id,
			:timestamp, :created_utc, :url, :permalink, :subreddit, :score,
			:num_comments, :is_self, :over_18, :selftext, :rating, :app_version,
			:device_info, :channel_id, :channel_name, :thread_ts, :reply_count,
			:retweet_count, :favorite_count, :hashtags, :mentions, :language,
			:sentiment, :category, :severity, :business_impact_score,
			:pii_detected, :processed, :raw_data, :tags, :notes, :created_at, :updated_at
		)`, msg)
	return err == nil, err
}

func (r *messageRepository) GetUnprocessed(limit int) ([]*models.Message, error) {
	// Oldest first so old unprocessed items are never starved.
	query := `SELECT * FROM messages WHERE processed = FALSE ORDER BY created_at ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var messages []*models.Message
	if err := r.db.Select(&messages, query, args...); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) MarkProcessed(id string, ann Annotations) error {
	result, err := r.db.Exec(`
		UPDATE messages SET
			processed = TRUE,
			content = ?,
			language = ?,
			sentiment = ?,
			category = ?,
			severity = ?,
			business_impact_score = ?,
			pii_detected = ?,
			updated_at = ?
		WHERE id = ?`,
		ann.Content, ann.Language, ann.Sentiment, ann.Category, ann.Severity,
		ann.BusinessImpactScore, ann.PIIDetected, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("message not found: " + id)
	}
	return nil
}

func (r *messageRepository) RecentProcessed(limit int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.Select(&messages, `
		SELECT * FROM messages WHERE processed = TRUE
		ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) LatestSlackTimestamp() (time.Time, error) {
	var ts time.Time
	err := r.db.Get(&ts, `
		SELECT timestamp FROM messages
		WHERE id LIKE 'slack_%'
		ORDER BY timestamp DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (r *messageRepository) Stats() (*Stats, error) {
	stats := &Stats{
		BySource:    map[string]int64{},
		BySentiment: map[string]int64{},
		ByCategory:  map[string]int64{},
	}

	if err := r.db.Get(&stats.TotalMessages, `SELECT COUNT(*) FROM messages`); err != nil {
		return nil, err
	}
	if err := r.db.Get(&stats.ProcessedMessages, `SELECT COUNT(*) FROM messages WHERE processed = TRUE`); err != nil {
		return nil, err
	}
	stats.UnprocessedMessages = stats.TotalMessages - stats.ProcessedMessages

	if err := r.countGroups(`SELECT source, COUNT(*) FROM messages GROUP BY source`, stats.BySource); err != nil {
		return nil, err
	}
	if err := r.countGroups(`SELECT sentiment, COUNT(*) FROM messages WHERE sentiment IS NOT NULL GROUP BY sentiment`, stats.BySentiment); err != nil {
		return nil, err
	}
	if err := r.countGroups(`SELECT category, COUNT(*) FROM messages WHERE category IS NOT NULL GROUP BY category`, stats.ByCategory); err != nil {
		return nil, err
	}

	err := r.db.Get(&stats.RecentMessages24h, `
		SELECT COUNT(*) FROM messages
		WHERE datetime(timestamp) > datetime('now', '-1 day')`)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *messageRepository) countGroups(query string, into map[string]int64) error {
	rows, err := r.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key sql.NullString
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			r.logger.Error("Failed to scan group count", zap.Error(err))
			continue
		}
		into[strings.TrimSpace(key.String)] = count
	}
	return rows.Err()
}
