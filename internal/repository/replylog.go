package repository

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ReplyLog is the durable set of source message timestamps that already
// received an automated reply. It is an append-only file, one timestamp per
// line, loaded fully on startup. Appending only after a successful reply
// post is what guarantees at-most-one reply per message across restarts.
type ReplyLog struct {
	mu     sync.Mutex
	path   string
	seen   map[string]struct{}
	logger *zap.Logger
}

// NewReplyLog opens (creating if absent) the reply log at path.
func NewReplyLog(path string, logger *zap.Logger) (*ReplyLog, error) {
	l := &ReplyLog{
		path:   path,
		seen:   make(map[string]struct{}),
		logger: logger,
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to open reply log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		ts := strings.TrimSpace(scanner.Text())
		if ts != "" {
			l.seen[ts] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reply log: %w", err)
	}

	logger.Info("Loaded reply log", zap.String("path", path), zap.Int("entries", len(l.seen)))
	return l, nil
}

// Contains reports whether ts was already replied to.
func (l *ReplyLog) Contains(ts string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[ts]
	return ok
}

// Add records ts durably. Idempotent.
func (l *ReplyLog) Add(ts string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[ts]; ok {
		return nil
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open reply log for append: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, ts); err != nil {
		return fmt.Errorf("failed to append to reply log: %w", err)
	}

	l.seen[ts] = struct{}{}
	return nil
}

// Len returns the number of recorded replies.
func (l *ReplyLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
