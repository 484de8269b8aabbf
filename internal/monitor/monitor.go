// Package monitor orchestrates the ingestion adapters, the processing
// pipeline and the reply pass on a fixed interval, tracking per-service
// health counters.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/pipeline"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/reply"
)

// Ingester is a source adapter that pulls new items into the store.
type Ingester interface {
	Run(ctx context.Context) (int, error)
}

// ServiceStatus is the health record of one monitored service.
type ServiceStatus struct {
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	LastCheck      time.Time `json:"last_check"`
	LastError      string    `json:"last_error,omitempty"`
	ProcessedCount int64     `json:"processed_count"`
	ErrorCount     int64     `json:"error_count"`
}

type namedIngester struct {
	name     string
	ingester Ingester
}

// Monitor runs all services once per interval. Shutdown happens between
// cycles; an in-flight item is allowed to finish.
type Monitor struct {
	ingesters  []namedIngester
	processor  *pipeline.Processor
	responder  *reply.Responder
	batchSize  int
	replyLimit int
	interval   time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	statuses map[string]*ServiceStatus
}

// New creates a monitor. responder may be nil when no Slack client is
// configured; the reply service then reports itself disabled.
func New(processor *pipeline.Processor, responder *reply.Responder, batchSize, replyLimit int, interval time.Duration, logger *zap.Logger) *Monitor {
	m := &Monitor{
		processor:  processor,
		responder:  responder,
		batchSize:  batchSize,
		replyLimit: replyLimit,
		interval:   interval,
		logger:     logger,
		statuses:   make(map[string]*ServiceStatus),
	}
	if responder == nil {
		m.setStatus("reply", func(s *ServiceStatus) {
			s.Status = "disabled"
		})
	}
	return m
}

// AddIngester registers a named source adapter. Adapters run in registration
// order at the start of every cycle.
func (m *Monitor) AddIngester(name string, ingester Ingester) {
	m.ingesters = append(m.ingesters, namedIngester{name: name, ingester: ingester})
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Monitor started", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	m.logger.Info("Starting monitor cycle", zap.String("cycle_id", cycleID))

	for _, entry := range m.ingesters {
		if ctx.Err() != nil {
			return
		}
		count, err := entry.ingester.Run(ctx)
		m.record(entry.name, int64(count), err)
	}

	if ctx.Err() != nil {
		return
	}

	stats, err := m.processor.RunCycle(ctx, m.batchSize)
	m.record("processor", int64(stats.Successful), err)

	if m.responder != nil && ctx.Err() == nil {
		results, err := m.responder.Run(ctx, m.replyLimit)
		m.record("reply", int64(len(results)), err)
	}

	m.logger.Info("Monitor cycle completed", zap.String("cycle_id", cycleID))
}

func (m *Monitor) record(name string, processed int64, err error) {
	m.setStatus(name, func(s *ServiceStatus) {
		s.LastCheck = time.Now().UTC()
		s.ProcessedCount += processed
		if err != nil {
			s.Status = "error"
			s.LastError = err.Error()
			s.ErrorCount++
			m.logger.Error("Service cycle failed", zap.String("service", name), zap.Error(err))
		} else {
			s.Status = "ok"
			s.LastError = ""
		}
	})
}

func (m *Monitor) setStatus(name string, update func(*ServiceStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[name]
	if !ok {
		s = &ServiceStatus{Name: name}
		m.statuses[name] = s
	}
	update(s)
}

// Statuses returns a snapshot of all service health records, sorted by name.
func (m *Monitor) Statuses() []ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ServiceStatus, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
