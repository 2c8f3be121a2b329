package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CatalogSnapshot is a detached copy of the collections handed to an
// Assistant. Changing it has no effect on the library.
type CatalogSnapshot struct {
	Books   []Book    `json:"books"`
	Members []Member  `json:"members"`
	Loans   []Loan    `json:"loans"`
	Stats   Stats     `json:"stats"`
	TakenAt time.Time `json:"taken_at"`
}

// Assistant answers free-text questions about the catalog.
type Assistant interface {
	Answer(ctx context.Context, snapshot CatalogSnapshot, question string) (string, error)
}

// ErrAssistantUnavailable wraps every failure reported by an Assistant.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// Snapshot takes a detached copy of the current collections.
func (lm *LibraryManager) Snapshot() (CatalogSnapshot, error) {
	s, err := lm.snapshot()
	if err != nil {
		return CatalogSnapshot{}, err
	}
	s = s.clone()
	now := lm.now()
	return CatalogSnapshot{
		Books:   s.books,
		Members: s.members,
		Loans:   s.loans,
		Stats:   ComputeStats(s.books, s.members, s.loans, now),
		TakenAt: now,
	}, nil
}

// Ask forwards question to the assistant together with a snapshot. No lock is
// held while the assistant runs.
func (lm *LibraryManager) Ask(ctx context.Context, a Assistant, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalidInput("question is required")
	}
	if a == nil {
		return "", ErrAssistantUnavailable
	}
	snap, err := lm.Snapshot()
	if err != nil {
		return "", err
	}
	answer, err := a.Answer(ctx, snap, question)
	if err != nil {
		lm.logger.Warn("assistant failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	return answer, nil
}
