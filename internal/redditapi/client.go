// Package redditapi is a thin client for the Reddit OAuth API endpoints the
// ingestion adapter consumes: new-post listings and search.
package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	apiURL   = "https://oauth.reddit.com"
)

// Post is a Reddit submission as returned by a listing.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	Selftext    string  `json:"selftext"`
	Score       int64   `json:"score"`
	NumComments int64   `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
}

// Client authenticates with client credentials and reads public listings.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client
	logger       *zap.Logger

	accessToken  string
	tokenExpires time.Time
}

// NewClient creates a Reddit API client.
func NewClient(clientID, clientSecret, userAgent string, logger *zap.Logger) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("reddit client id and secret are required")
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// FetchNew returns the newest posts of a subreddit.
func (c *Client) FetchNew(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new", apiURL, url.PathEscape(subreddit))
	params := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"raw_json": {"1"},
	}
	return c.listing(ctx, endpoint, params)
}

// Search returns the newest posts matching query across all subreddits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Post, error) {
	params := url.Values{
		"q":        {query},
		"limit":    {strconv.Itoa(limit)},
		"sort":     {"new"},
		"raw_json": {"1"},
	}
	return c.listing(ctx, apiURL+"/search", params)
}

func (c *Client) listing(ctx context.Context, endpoint string, params url.Values) ([]Post, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	var response struct {
		Data struct {
			Children []struct {
				Data Post `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}

	posts := make([]Post, 0, len(response.Data.Children))
	for _, child := range response.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// token returns a cached application token, refreshing it shortly before
// expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.accessToken != "" && time.Now().Before(c.tokenExpires) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tokenResponse.AccessToken
	expiresIn := tokenResponse.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	c.tokenExpires = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	c.logger.Info("Reddit access token obtained")

	return c.accessToken, nil
}
