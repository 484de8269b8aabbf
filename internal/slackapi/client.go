// Package slackapi is a thin client for the Slack Web API methods this
// system consumes: posting channel messages (optionally threaded), listing
// channels and reading channel history.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const baseURL = "https://slack.com/api"

// ErrNoToken is returned by NewClient when no bot token is configured.
var ErrNoToken = errors.New("slack bot token is required")

// ChannelInfo describes a channel from conversations.list.
type ChannelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}

// ChannelMessage is a message from conversations.history.
type ChannelMessage struct {
	TS       string `json:"ts"`
	Text     string `json:"text"`
	User     string `json:"user"`
	BotID    string `json:"bot_id"`
	Subtype  string `json:"subtype"`
	ThreadTS string `json:"thread_ts"`
}

// PostParams are the inputs to chat.postMessage.
type PostParams struct {
	Channel  string           `json:"channel"`
	Text     string           `json:"text"`
	Blocks   []map[string]any `json:"blocks,omitempty"`
	ThreadTS string           `json:"thread_ts,omitempty"`
}

// PostResult reports the outcome of a post attempt.
type PostResult struct {
	Success   bool
	MessageTS string
	Error     string
}

// Client talks to the Slack Web API on behalf of the bot.
type Client struct {
	token      string
	httpClient *http.Client
	logger     *zap.Logger

	mu           sync.Mutex
	channelCache map[string]bool
}

// NewClient creates a Slack client. Fails fast when the token is missing so
// callers can degrade gracefully (classify and store without posting).
func NewClient(token string, logger *zap.Logger) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:       logger,
		channelCache: make(map[string]bool),
	}, nil
}

// AuthTest verifies the token and returns the bot user name.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	var response struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		User  string `json:"user"`
	}
	if err := c.get(ctx, "auth.test", nil, &response); err != nil {
		return "", err
	}
	if !response.OK {
		return "", fmt.Errorf("slack auth.test failed: %s", response.Error)
	}
	return response.User, nil
}

// PostMessage posts text (and optional blocks) to a channel. When threadTS
// is set the message is threaded under that parent.
func (c *Client) PostMessage(ctx context.Context, params PostParams) (PostResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return PostResult{}, fmt.Errorf("failed to encode post params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return PostResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PostResult{}, fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	var response struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		TS    string `json:"ts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return PostResult{}, fmt.Errorf("failed to decode post response: %w", err)
	}

	if !response.OK {
		c.logger.Error("Slack rejected message", zap.String("channel", params.Channel), zap.String("error", response.Error))
		return PostResult{Success: false, Error: response.Error}, nil
	}

	return PostResult{Success: true, MessageTS: response.TS}, nil
}

// ListChannels returns the public and private channels visible to the bot.
func (c *Client) ListChannels(ctx context.Context) ([]ChannelInfo, error) {
	var response struct {
		OK       bool          `json:"ok"`
		Error    string        `json:"error"`
		Channels []ChannelInfo `json:"channels"`
	}
	params := url.Values{"types": {"public_channel,private_channel"}, "limit": {"200"}}
	if err := c.get(ctx, "conversations.list", params, &response); err != nil {
		return nil, err
	}
	if !response.OK {
		return nil, fmt.Errorf("slack conversations.list failed: %s", response.Error)
	}
	return response.Channels, nil
}

// GetChannelID resolves a channel name to its ID, or "" when not found.
func (c *Client) GetChannelID(ctx context.Context, name string) (string, error) {
	channels, err := c.ListChannels(ctx)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch.ID, nil
		}
	}
	return "", nil
}

// History fetches up to limit messages from a channel. When oldest is
// non-zero only messages after that timestamp are returned, which is how
// ingestion avoids refetching already-seen items.
func (c *Client) History(ctx context.Context, channelID string, oldest time.Time, limit int) ([]ChannelMessage, error) {
	params := url.Values{
		"channel": {channelID},
		"limit":   {strconv.Itoa(limit)},
	}
	if !oldest.IsZero() {
		params.Set("oldest", strconv.FormatFloat(float64(oldest.UnixNano())/1e9, 'f', 6, 64))
	}

	var response struct {
		OK       bool             `json:"ok"`
		Error    string           `json:"error"`
		Messages []ChannelMessage `json:"messages"`
	}
	if err := c.get(ctx, "conversations.history", params, &response); err != nil {
		return nil, err
	}
	if !response.OK {
		return nil, fmt.Errorf("slack conversations.history failed: %s", response.Error)
	}
	return response.Messages, nil
}

// ValidateChannel reports whether a channel ID is accessible. Results are
// cached for the lifetime of the client.
func (c *Client) ValidateChannel(ctx context.Context, channelID string) bool {
	if channelID == "" {
		return false
	}

	c.mu.Lock()
	if valid, ok := c.channelCache[channelID]; ok {
		c.mu.Unlock()
		return valid
	}
	c.mu.Unlock()

	var response struct {
		OK bool `json:"ok"`
	}
	params := url.Values{"channel": {channelID}}
	err := c.get(ctx, "conversations.info", params, &response)
	valid := err == nil && response.OK
	if err != nil {
		c.logger.Warn("Channel validation failed", zap.String("channel", channelID), zap.Error(err))
	}

	c.mu.Lock()
	c.channelCache[channelID] = valid
	c.mu.Unlock()
	return valid
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}
