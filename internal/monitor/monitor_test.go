package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/pipeline"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
)

type emptyRepo struct{}

func (emptyRepo) Upsert(*models.Message) (bool, error)               { return false, nil }
func (emptyRepo) GetUnprocessed(int) ([]*models.Message, error)      { return nil, nil }
func (emptyRepo) MarkProcessed(string, repository.Annotations) error { return nil }
func (emptyRepo) RecentProcessed(int) ([]*models.Message, error)     { return nil, nil }
func (emptyRepo) LatestSlackTimestamp() (time.Time, error)           { return time.Time{}, nil }
func (emptyRepo) Stats() (*repository.Stats, error)                  { return &repository.Stats{}, nil }

type stubIngester struct {
	count int
	err   error
	runs  int
}

func (s *stubIngester) Run(context.Context) (int, error) {
	s.runs++
	return s.count, s.err
}

func newTestMonitor() *Monitor {
	cls := classifier.New(classifier.DefaultTaxonomy(), classifier.DeterministicIssuer{})
	proc := pipeline.New(emptyRepo{}, cls, nil, time.Millisecond, zap.NewNop())
	return New(proc, nil, 0, 20, time.Minute, zap.NewNop())
}

func TestCycleRecordsServiceHealth(t *testing.T) {
	m := newTestMonitor()
	healthy := &stubIngester{count: 3}
	broken := &stubIngester{err: errors.New("auth failed")}
	m.AddIngester("reddit_ingest", healthy)
	m.AddIngester("slack_ingest", broken)

	m.runCycle(context.Background())
	m.runCycle(context.Background())

	if healthy.runs != 2 || broken.runs != 2 {
		t.Errorf("ingester runs = %d/%d, want 2/2", healthy.runs, broken.runs)
	}

	byName := make(map[string]ServiceStatus)
	for _, s := range m.Statuses() {
		byName[s.Name] = s
	}

	reddit := byName["reddit_ingest"]
	if reddit.Status != "ok" || reddit.ProcessedCount != 6 || reddit.ErrorCount != 0 {
		t.Errorf("reddit status = %+v", reddit)
	}

	slack := byName["slack_ingest"]
	if slack.Status != "error" || slack.ErrorCount != 2 || slack.LastError == "" {
		t.Errorf("slack status = %+v", slack)
	}

	proc := byName["processor"]
	if proc.Status != "ok" {
		t.Errorf("processor status = %+v", proc)
	}
}

func TestDisabledReplyServiceReported(t *testing.T) {
	m := newTestMonitor()

	m.runCycle(context.Background())

	for _, s := range m.Statuses() {
		if s.Name == "reply" {
			if s.Status != "disabled" {
				t.Errorf("reply status = %q, want disabled", s.Status)
			}
			return
		}
	}
	t.Error("no reply service status recorded")
}

func TestStatusesSortedByName(t *testing.T) {
	m := newTestMonitor()
	m.AddIngester("reddit_ingest", &stubIngester{})
	m.AddIngester("slack_ingest", &stubIngester{})
	m.runCycle(context.Background())

	statuses := m.Statuses()
	for i := 1; i < len(statuses); i++ {
		if statuses[i-1].Name > statuses[i].Name {
			t.Errorf("statuses not sorted: %q before %q", statuses[i-1].Name, statuses[i].Name)
		}
	}
}
