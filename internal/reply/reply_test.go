package reply

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/classifier"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/models"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/repository"
	"github.com/harsh-fadadu-ah/earnin-hackathon/internal/slackapi"
)

type fakeSlack struct {
	messages   []slackapi.ChannelMessage
	posts      []slackapi.PostParams
	postErr    error
	valid      bool
	historyErr error
}

func (f *fakeSlack) History(context.Context, string, time.Time, int) ([]slackapi.ChannelMessage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.messages, nil
}

func (f *fakeSlack) PostMessage(_ context.Context, params slackapi.PostParams) (slackapi.PostResult, error) {
	if f.postErr != nil {
		return slackapi.PostResult{}, f.postErr
	}
	f.posts = append(f.posts, params)
	return slackapi.PostResult{Success: true, MessageTS: "1727.9999"}, nil
}

func (f *fakeSlack) ValidateChannel(context.Context, string) bool { return f.valid }

func newTestResponder(t *testing.T, api SlackAPI) *Responder {
	t.Helper()
	log, err := repository.NewReplyLog(filepath.Join(t.TempDir(), "processed_messages.txt"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open reply log: %v", err)
	}
	cls := classifier.New(classifier.DefaultTaxonomy(), classifier.DeterministicIssuer{})
	return NewResponder(api, cls, log, "C09KQHTCGFR", time.Millisecond, zap.NewNop())
}

func userMessage(ts, text string) slackapi.ChannelMessage {
	return slackapi.ChannelMessage{TS: ts, Text: text, User: "U123"}
}

func TestRunRepliesAtMostOnce(t *testing.T) {
	api := &fakeSlack{
		valid:    true,
		messages: []slackapi.ChannelMessage{userMessage("1727.0001", "thanks, the app is great!")},
	}
	r := newTestResponder(t, api)

	results, err := r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("first run replied %d times, want 1", len(results))
	}

	// Re-running over the same history must not reply again.
	results, err = r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("second run replied %d times, want 0", len(results))
	}
}

func TestRunSkipsBotAndEmptyMessages(t *testing.T) {
	api := &fakeSlack{
		valid: true,
		messages: []slackapi.ChannelMessage{
			{TS: "1727.0001", Text: "automated notice", BotID: "B0123"},
			{TS: "1727.0002", Text: "subtype bot", Subtype: "bot_message", User: "U1"},
			{TS: "1727.0003", Text: "", User: "U2"},
			{TS: "1727.0004", Text: "from a bot user id", User: "B777"},
			userMessage("1727.0005", "real user feedback, thanks"),
		},
	}
	r := newTestResponder(t, api)

	results, err := r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("replied %d times, want 1", len(results))
	}
	if results[0].OriginalTS != "1727.0005" {
		t.Errorf("replied to %q, want the real user message", results[0].OriginalTS)
	}
}

func TestNegativeFeedbackGetsTicketedReply(t *testing.T) {
	api := &fakeSlack{
		valid:    true,
		messages: []slackapi.ChannelMessage{userMessage("1727.0001", "cash out is not working at all")},
	}
	r := newTestResponder(t, api)

	results, err := r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("replied %d times, want 1", len(results))
	}
	if results[0].Sentiment != models.SentimentNegative {
		t.Errorf("sentiment = %q, want negative", results[0].Sentiment)
	}

	reply := api.posts[0]
	if reply.ThreadTS != "1727.0001" {
		t.Errorf("reply not threaded on the original message: %q", reply.ThreadTS)
	}
	if !strings.Contains(reply.Text, results[0].Ticket) {
		t.Errorf("reply %q missing ticket %q", reply.Text, results[0].Ticket)
	}
	if !strings.Contains(reply.Text, "https://jira.example.com/browse/"+results[0].Ticket) {
		t.Errorf("reply %q missing tracking URL", reply.Text)
	}
}

func TestDeterministicTicketAcrossRuns(t *testing.T) {
	msg := userMessage("1727.0001", "cash out is not working at all")

	api1 := &fakeSlack{valid: true, messages: []slackapi.ChannelMessage{msg}}
	api2 := &fakeSlack{valid: true, messages: []slackapi.ChannelMessage{msg}}

	r1, _ := newTestResponder(t, api1).Run(context.Background(), 50)
	r2, _ := newTestResponder(t, api2).Run(context.Background(), 50)

	if len(r1) != 1 || len(r2) != 1 {
		t.Fatalf("expected one reply per run, got %d and %d", len(r1), len(r2))
	}
	if r1[0].Ticket != r2[0].Ticket {
		t.Errorf("same message got different tickets: %q vs %q", r1[0].Ticket, r2[0].Ticket)
	}
}

func TestPostFailureLeavesMessageEligible(t *testing.T) {
	api := &fakeSlack{
		valid:    true,
		messages: []slackapi.ChannelMessage{userMessage("1727.0001", "thanks for the help")},
		postErr:  errors.New("rate limited"),
	}
	r := newTestResponder(t, api)

	results, err := r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("failed post produced %d results, want 0", len(results))
	}

	// Once posting recovers, the message must be retried.
	api.postErr = nil
	results, err = r.Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("retry run replied %d times, want 1", len(results))
	}
}

func TestRunFailsWhenChannelInaccessible(t *testing.T) {
	api := &fakeSlack{valid: false}
	r := newTestResponder(t, api)

	if _, err := r.Run(context.Background(), 50); err == nil {
		t.Error("expected an error when the channel is inaccessible")
	}
}

func TestRunFailsWhenHistoryUnavailable(t *testing.T) {
	api := &fakeSlack{valid: true, historyErr: errors.New("timeout")}
	r := newTestResponder(t, api)

	if _, err := r.Run(context.Background(), 50); err == nil {
		t.Error("expected an error when history cannot be fetched")
	}
}

func TestClassificationMirroredToRoutedChannel(t *testing.T) {
	api := &fakeSlack{
		valid:    true,
		messages: []slackapi.ChannelMessage{userMessage("1727.0001", "my instant cash out fee doubled, cashout issue")},
	}
	r := newTestResponder(t, api)

	if _, err := r.Run(context.Background(), 50); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(api.posts) != 2 {
		t.Fatalf("posted %d messages, want a threaded reply plus a mirror", len(api.posts))
	}
	mirror := api.posts[1]
	if mirror.Channel != "C09LBDF1MT8" {
		t.Errorf("mirror posted to %q, want the cashout channel", mirror.Channel)
	}
	if mirror.ThreadTS != "" {
		t.Errorf("mirror must not be threaded, got %q", mirror.ThreadTS)
	}
}
