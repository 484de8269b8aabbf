package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/pipeline"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

func main() {
	dbPath := flag.String("db-path", "unified_messages.db", "Path to the unified messages database")
	migrationsPath := flag.String("migrations", "migrations", "Path to the migration files")
	batchSize := flag.Int("batch-size", 0, "Messages to process per cycle (0 = all)")
	continuous := flag.Bool("continuous", false, "Keep processing on an interval instead of one cycle")
	interval := flag.Int("interval", 60, "Seconds between cycles in continuous mode")
	statsOnly := flag.Bool("stats-only", false, "Print store statistics and exit")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	_ = godotenv.Load()

	db, err := repository.NewSQLiteDB(*dbPath, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, *migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := repository.NewMessageRepository(db, logger)

	if *statsOnly {
		stats, err := repo.Stats()
		if err != nil {
			logger.Fatal("Failed to read stats", zap.Error(err))
		}
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(out))
		return
	}

	// Posting is optional: without a token the processor still classifies
	// and stores, it just skips publishing.
	var poster pipeline.Poster
	slackClient, err := slackapi.NewClient(os.Getenv("SLACK_BOT_TOKEN"), logger)
	switch {
	case err == nil:
		poster = slackClient
	case errors.Is(err, slackapi.ErrNoToken):
		logger.Warn("No Slack bot token configured, channel posting disabled")
	default:
		logger.Fatal("Failed to initialize Slack client", zap.Error(err))
	}

	cls := classifier.New(classifier.DefaultTaxonomy(), classifier.NewRandomIssuer(time.Now().UnixNano()))
	processor := pipeline.New(repo, cls, poster, 500*time.Millisecond, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !*continuous {
		stats, err := processor.RunCycle(ctx, *batchSize)
		if err != nil {
			logger.Fatal("Processing cycle failed", zap.Error(err))
		}
		fmt.Printf("Processed %d messages: %d successful, %d failed, %d skipped\n",
			stats.Total, stats.Successful, stats.Failed, stats.Skipped)
		return
	}

	logger.Info("Running in continuous mode", zap.Int("interval_seconds", *interval))
	ticker := time.NewTicker(time.Duration(*interval) * time.Second)
	defer ticker.Stop()

	for {
		if _, err := processor.RunCycle(ctx, *batchSize); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error("Processing cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return
		case <-ticker.C:
		}
	}
}
