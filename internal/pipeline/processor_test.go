package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

type fakeRepo struct {
	queue     []*models.Message
	marked    map[string]repository.Annotations
	markErrs  map[string]error
	fetchErr  error
	markCalls int
}

func newFakeRepo(queue ...*models.Message) *fakeRepo {
	return &fakeRepo{
		queue:    queue,
		marked:   make(map[string]repository.Annotations),
		markErrs: make(map[string]error),
	}
}

func (f *fakeRepo) Upsert(*models.Message) (bool, error) { return false, nil }

func (f *fakeRepo) GetUnprocessed(limit int) ([]*models.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit > 0 && limit < len(f.queue) {
		return f.queue[:limit], nil
	}
	return f.queue, nil
}

func (f *fakeRepo) MarkProcessed(id string, ann repository.Annotations) error {
	f.markCalls++
	if err := f.markErrs[id]; err != nil {
		return err
	}
	f.marked[id] = ann
	return nil
}

func (f *fakeRepo) RecentProcessed(int) ([]*models.Message, error) { return nil, nil }

func (f *fakeRepo) LatestSlackTimestamp() (time.Time, error) { return time.Time{}, nil }

func (f *fakeRepo) Stats() (*repository.Stats, error) { return &repository.Stats{}, nil }

type fakePoster struct {
	posts   []slackapi.PostParams
	postErr error
	reject  bool
}

func (f *fakePoster) PostMessage(_ context.Context, params slackapi.PostParams) (slackapi.PostResult, error) {
	if f.postErr != nil {
		return slackapi.PostResult{}, f.postErr
	}
	if f.reject {
		return slackapi.PostResult{Success: false, Error: "channel_not_found"}, nil
	}
	f.posts = append(f.posts, params)
	return slackapi.PostResult{Success: true, MessageTS: "1727.0001"}, nil
}

func (f *fakePoster) ValidateChannel(context.Context, string) bool { return true }

func queuedMessage(id, content string) *models.Message {
	return &models.Message{
		ID:        id,
		Source:    models.SourceSlack,
		Platform:  "slack",
		Content:   content,
		Author:    "U123",
		Timestamp: time.Now().UTC(),
	}
}

func newProcessor(repo repository.MessageRepository, poster Poster) *Processor {
	cls := classifier.New(classifier.DefaultTaxonomy(), classifier.DeterministicIssuer{})
	return New(repo, cls, poster, time.Millisecond, zap.NewNop())
}

func TestRunCycleEmptyQueue(t *testing.T) {
	repo := newFakeRepo()
	p := newProcessor(repo, &fakePoster{})

	stats, err := p.RunCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Total != 0 || stats.Successful != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
	if repo.markCalls != 0 {
		t.Errorf("empty cycle performed %d store writes, want 0", repo.markCalls)
	}
}

func TestRunCycleClassifiesAndPosts(t *testing.T) {
	repo := newFakeRepo(queuedMessage("slack_1_U1", "My instant cash out took much longer than usual, and I couldn't figure out what the fee was for. Help!"))
	poster := &fakePoster{}
	p := newProcessor(repo, poster)

	stats, err := p.RunCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Successful != 1 || stats.Failed != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 1 successful", stats)
	}
	if len(poster.posts) != 1 {
		t.Fatalf("posted %d messages, want 1", len(poster.posts))
	}
	if poster.posts[0].Channel != "C09LBDF1MT8" {
		t.Errorf("posted to %q, want the cashout channel", poster.posts[0].Channel)
	}

	ann, ok := repo.marked["slack_1_U1"]
	if !ok {
		t.Fatal("message was not marked processed")
	}
	if ann.Sentiment != models.SentimentNegative {
		t.Errorf("annotated sentiment = %q, want negative", ann.Sentiment)
	}
	if ann.Category != string(classifier.L1Payments) {
		t.Errorf("annotated category = %q, want %q", ann.Category, classifier.L1Payments)
	}
}

func TestRunCycleSkipsUnroutedMessages(t *testing.T) {
	repo := newFakeRepo(queuedMessage("slack_2_U1", "love it, thanks!"))
	poster := &fakePoster{}
	p := newProcessor(repo, poster)

	stats, err := p.RunCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Successful != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 successful / 1 skipped", stats)
	}
	if len(poster.posts) != 0 {
		t.Errorf("posted %d messages for an unrouted classification", len(poster.posts))
	}
	if _, ok := repo.marked["slack_2_U1"]; !ok {
		t.Error("unrouted message must still be marked processed")
	}
}

func TestRunCycleMarksProcessedWhenPostFails(t *testing.T) {
	repo := newFakeRepo(queuedMessage("slack_3_U1", "cash out error, app is broken"))
	poster := &fakePoster{postErr: errors.New("rate limited")}
	p := newProcessor(repo, poster)

	stats, err := p.RunCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Successful != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want the item counted successful", stats)
	}
	if _, ok := repo.marked["slack_3_U1"]; !ok {
		t.Error("message must be marked processed even when the post fails")
	}
}

func TestRunCycleCountsItemFailures(t *testing.T) {
	repo := newFakeRepo(
		queuedMessage("slack_4_U1", "first message with a bug"),
		queuedMessage("slack_5_U1", "second message with a bug"),
	)
	repo.markErrs["slack_4_U1"] = errors.New("disk full")
	p := newProcessor(repo, &fakePoster{})

	stats, err := p.RunCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Failed != 1 || stats.Successful != 1 {
		t.Errorf("stats = %+v, want 1 failed and 1 successful", stats)
	}
	if len(stats.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", stats.Errors)
	}
	if _, ok := repo.marked["slack_5_U1"]; !ok {
		t.Error("a failing item must not abort the rest of the batch")
	}
}

func TestRunCycleRedactsPIIBeforeStoring(t *testing.T) {
	repo := newFakeRepo(queuedMessage("slack_6_U1", "my email is jane@example.com and the app has a bug"))
	p := newProcessor(repo, &fakePoster{})

	if _, err := p.RunCycle(context.Background(), 0); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	ann := repo.marked["slack_6_U1"]
	if !ann.PIIDetected {
		t.Error("PII flag not set")
	}
	if want := "[EMAIL]"; !strings.Contains(ann.Content, want) {
		t.Errorf("annotated content %q missing %q", ann.Content, want)
	}
	if strings.Contains(ann.Content, "jane@example.com") {
		t.Errorf("annotated content still holds raw PII: %q", ann.Content)
	}
}
