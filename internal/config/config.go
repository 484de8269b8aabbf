// Package config loads the application's YAML configuration and applies
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration. It is read once at startup;
// there is no hot-reload.
type Config struct {
	Database struct {
		Path           string `yaml:"path"`
		MigrationsPath string `yaml:"migrations_path"`
	} `yaml:"database"`

	Slack struct {
		BotToken string `yaml:"bot_token"`
		// ReviewChannel is the channel name store reviews are mirrored into.
		ReviewChannel string `yaml:"review_channel"`
		// AllFeedbackChannel is the channel ID the reply subsystem watches.
		AllFeedbackChannel string `yaml:"all_feedback_channel"`
		ReplyLogPath       string `yaml:"reply_log_path"`
	} `yaml:"slack"`

	Reddit struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		UserAgent    string   `yaml:"user_agent"`
		Subreddits   []string `yaml:"subreddits"`
		// Keywords filter fetched posts for relevance before storing.
		Keywords         []string `yaml:"keywords"`
		FetchLimit       int      `yaml:"fetch_limit"`
		SubredditDelayMs int64    `yaml:"subreddit_delay_ms"`
	} `yaml:"reddit"`

	Processor struct {
		BatchSize   int   `yaml:"batch_size"`
		ItemDelayMs int64 `yaml:"item_delay_ms"`
	} `yaml:"processor"`

	Monitor struct {
		CheckIntervalSeconds int64 `yaml:"check_interval_seconds"`
	} `yaml:"monitor"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file, then overlays
// secrets from the environment. A .env file next to the process is honored
// when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		c.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		c.Reddit.ClientSecret = v
	}
	if v := os.Getenv("MONITOR_CHECK_INTERVAL"); v != "" {
		if seconds, err := strconv.ParseInt(v, 10, 64); err == nil && seconds > 0 {
			c.Monitor.CheckIntervalSeconds = seconds
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "unified_messages.db"
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Slack.ReplyLogPath == "" {
		c.Slack.ReplyLogPath = "processed_messages.txt"
	}
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "feedforward/1.0"
	}
	if c.Reddit.FetchLimit == 0 {
		c.Reddit.FetchLimit = 25
	}
	if c.Reddit.SubredditDelayMs == 0 {
		c.Reddit.SubredditDelayMs = 1000
	}
	if c.Processor.BatchSize == 0 {
		c.Processor.BatchSize = 50
	}
	if c.Processor.ItemDelayMs == 0 {
		c.Processor.ItemDelayMs = 500
	}
	if c.Monitor.CheckIntervalSeconds == 0 {
		c.Monitor.CheckIntervalSeconds = 300
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
}
