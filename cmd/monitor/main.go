package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/config"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/ingest"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/monitor"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/pipeline"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/redditapi"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/reply"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/server"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "Path to the YAML configuration")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewSQLiteDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := repository.NewMessageRepository(db, logger)

	// Slack is optional: without a token the monitor still ingests Reddit
	// and mock reviews, classifies and stores; posting and replies stay off.
	var slackClient *slackapi.Client
	slackClient, err = slackapi.NewClient(cfg.Slack.BotToken, logger)
	if err != nil {
		if !errors.Is(err, slackapi.ErrNoToken) {
			logger.Fatal("Failed to initialize Slack client", zap.Error(err))
		}
		logger.Warn("No Slack bot token configured, posting and replies disabled")
		slackClient = nil
	}

	itemDelay := time.Duration(cfg.Processor.ItemDelayMs) * time.Millisecond
	cls := classifier.New(classifier.DefaultTaxonomy(), classifier.NewRandomIssuer(time.Now().UnixNano()))

	var poster pipeline.Poster
	if slackClient != nil {
		poster = slackClient
	}
	processor := pipeline.New(repo, cls, poster, itemDelay, logger)

	var responder *reply.Responder
	if slackClient != nil && cfg.Slack.AllFeedbackChannel != "" {
		replyLog, err := repository.NewReplyLog(cfg.Slack.ReplyLogPath, logger)
		if err != nil {
			logger.Fatal("Failed to open reply log", zap.Error(err))
		}
		replyCls := classifier.New(classifier.DefaultTaxonomy(), classifier.DeterministicIssuer{})
		responder = reply.NewResponder(slackClient, replyCls, replyLog, cfg.Slack.AllFeedbackChannel, itemDelay, logger)
	}

	interval := time.Duration(cfg.Monitor.CheckIntervalSeconds) * time.Second
	mon := monitor.New(processor, responder, cfg.Processor.BatchSize, 20, interval, logger)

	if cfg.Reddit.ClientID != "" && cfg.Reddit.ClientSecret != "" {
		redditClient, err := redditapi.NewClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret, cfg.Reddit.UserAgent, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Reddit client", zap.Error(err))
		}
		mon.AddIngester("reddit_ingest", ingest.NewRedditIngester(
			redditClient, repo,
			cfg.Reddit.Subreddits, cfg.Reddit.Keywords,
			cfg.Reddit.FetchLimit,
			time.Duration(cfg.Reddit.SubredditDelayMs)*time.Millisecond,
			logger))
	} else {
		logger.Warn("No Reddit credentials configured, Reddit ingestion disabled")
	}

	mon.AddIngester("slack_ingest", ingest.NewSlackIngester(slackClient, repo, cfg.Slack.ReviewChannel, logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiServer := server.NewServer(repo, mon, logger)
	go func() {
		if err := apiServer.Run(":" + cfg.Server.Port); err != nil {
			logger.Fatal("HTTP API failed to start", zap.Error(err))
		}
	}()

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Monitor stopped unexpectedly", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
