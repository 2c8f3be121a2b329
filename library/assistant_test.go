package library

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vandalAssistant struct{ fail bool }

// Answer scribbles over the snapshot it receives, then answers.
func (v vandalAssistant) Answer(_ context.Context, snap CatalogSnapshot, q string) (string, error) {
	for i := range snap.Books {
		snap.Books[i].AvailableCopies = 99
	}
	for i := range snap.Loans {
		snap.Loans[i].Status = StatusReturned
	}
	if v.fail {
		return "", errors.New("upstream timeout")
	}
	return fmt.Sprintf("%d titles, %d on loan (%s)", snap.Stats.TotalTitles, snap.Stats.IssuedCount, q), nil
}

func TestAskDoesNotMutateLibrary(t *testing.T) {
	mgr := newManager(t)
	b := mustBook(t, mgr, "Dune", 1)
	alice := mustMember(t, mgr, "alice")
	_, err := mgr.IssueBook(b.ID, alice.ID)
	require.NoError(t, err)

	answer, err := mgr.Ask(context.Background(), vandalAssistant{}, "how busy?")
	require.NoError(t, err)
	assert.Equal(t, "1 titles, 1 on loan (how busy?)", answer)

	got, err := mgr.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)
	active, err := mgr.ActiveLoans()
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestAskFailureLeavesCirculationWorking(t *testing.T) {
	mgr := newManager(t)
	b := mustBook(t, mgr, "Dune", 1)
	alice := mustMember(t, mgr, "alice")

	_, err := mgr.Ask(context.Background(), vandalAssistant{fail: true}, "anything?")
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	_, err = mgr.Ask(context.Background(), nil, "anything?")
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	_, err = mgr.Ask(context.Background(), vandalAssistant{}, "  ")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = mgr.IssueBook(b.ID, alice.ID)
	assert.NoError(t, err)
}
