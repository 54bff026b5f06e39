// Package memory implements durable, per-profile user feedback. Every
// correction the user records is appended verbatim and replayed into the
// profile's system prompt on every subsequent run, so agents stop
// repeating mistakes across sessions.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/donna-agent/donna/internal/store"
)

// ErrStorageUnavailable wraps persistence failures so callers can decide
// to retry without parsing driver errors.
var ErrStorageUnavailable = errors.New("feedback storage unavailable")

// FeedbackStore is the append-only per-profile correction log. Entries
// are never pruned, ranked, or rewritten; retrieval order is append
// order, oldest first.
type FeedbackStore struct {
	store  *store.Store
	logger *slog.Logger

	retries    int
	retryDelay time.Duration
}

// NewFeedbackStore creates a feedback store over the shared database.
func NewFeedbackStore(st *store.Store, logger *slog.Logger) *FeedbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackStore{
		store:      st,
		logger:     logger,
		retries:    3,
		retryDelay: 200 * time.Millisecond,
	}
}

// Append records one correction for a profile. Transient storage errors
// are retried with a short backoff; a persistent failure is returned
// wrapped in ErrStorageUnavailable so the entry is never silently lost.
func (f *FeedbackStore) Append(ctx context.Context, profile, content string) (*store.FeedbackEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("feedback content is empty")
	}
	if profile == "" {
		return nil, errors.New("feedback profile is empty")
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay * time.Duration(attempt)):
			}
		}
		entry, err := f.store.AppendFeedback(ctx, profile, content)
		if err == nil {
			f.logger.Info("feedback recorded", "profile", profile, "id", entry.ID)
			return entry, nil
		}
		lastErr = err
		f.logger.Warn("feedback append failed", "profile", profile, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, lastErr)
}

// Recall returns every entry for a profile, oldest first. A profile with
// no history returns an empty slice, not an error.
func (f *FeedbackStore) Recall(ctx context.Context, profile string) ([]store.FeedbackEntry, error) {
	entries, err := f.store.ListFeedback(ctx, profile, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// Count returns the number of corrections stored for a profile.
func (f *FeedbackStore) Count(ctx context.Context, profile string) (int, error) {
	n, err := f.store.CountFeedback(ctx, profile)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return n, nil
}

// PromptBlock renders a profile's history as a system prompt section.
// Returns "" when the profile has no history. Entries appear in append
// order so later corrections can refine earlier ones.
func (f *FeedbackStore) PromptBlock(ctx context.Context, profile string) (string, error) {
	entries, err := f.Recall(ctx, profile)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("## User Feedback\n")
	b.WriteString("The user has given you the following standing corrections. Follow them:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s\n", e.CreatedAt.Format("2006-01-02"), e.Content)
	}
	return b.String(), nil
}
