// Package server exposes a read-only HTTP API over the message store and
// the monitor's service health records.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/monitor"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
)

type Server struct {
	router  *gin.Engine
	repo    repository.MessageRepository
	monitor *monitor.Monitor
	logger  *zap.Logger
}

func NewServer(repo repository.MessageRepository, mon *monitor.Monitor, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:  router,
		repo:    repo,
		monitor: mon,
		logger:  logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := s.router.Group("/api")
	{
		api.GET("/stats", s.getStats)
		api.GET("/services", s.getServices)
		api.GET("/messages/recent", s.getRecentMessages)
	}
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.repo.Stats()
	if err != nil {
		s.logger.Error("Failed to read store stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": s.monitor.Statuses()})
}

// getRecentMessages returns the latest processed messages. Their content has
// already been through PII redaction by the pipeline.
func (s *Server) getRecentMessages(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = v
	}

	messages, err := s.repo.RecentProcessed(limit)
	if err != nil {
		s.logger.Error("Failed to read recent messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read messages"})
		return
	}

	type item struct {
		ID        string  `json:"id"`
		Source    string  `json:"source"`
		Content   string  `json:"content"`
		Author    string  `json:"author"`
		Sentiment string  `json:"sentiment,omitempty"`
		Category  string  `json:"category,omitempty"`
		Severity  string  `json:"severity,omitempty"`
		Impact    float64 `json:"business_impact_score"`
		Timestamp string  `json:"timestamp"`
	}

	out := make([]item, 0, len(messages))
	for _, m := range messages {
		it := item{
			ID:        m.ID,
			Source:    string(m.Source),
			Content:   m.Content,
			Author:    m.Author,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		}
		if m.Sentiment != nil {
			it.Sentiment = string(*m.Sentiment)
		}
		if m.Category != nil {
			it.Category = *m.Category
		}
		if m.Severity != nil {
			it.Severity = string(*m.Severity)
		}
		if m.BusinessImpactScore != nil {
			it.Impact = *m.BusinessImpactScore
		}
		out = append(out, it)
	}

	c.JSON(http.StatusOK, gin.H{"messages": out, "count": len(out)})
}

// Run starts the HTTP server. Blocks until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("HTTP API starting", zap.String("addr", addr))
	return s.router.Run(addr)
}
