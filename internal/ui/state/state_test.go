package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgrip/internal/domain"
)

func facts(ids ...string) []domain.Fact {
	out := make([]domain.Fact, len(ids))
	for i, id := range ids {
		out[i] = domain.Fact{ID: id, Title: "t" + id, Body: "b"}
	}
	return out
}

func TestBeginClearsAndFinishReplaces(t *testing.T) {
	s := NewAppState()
	s.Facts = facts("old")
	s.Err = "previous"

	cycle, ctx := s.Begin(context.Background(), domain.FetchByQuery, "cat")
	assert.True(t, s.Busy)
	assert.Empty(t, s.Facts)
	assert.Empty(t, s.Err)
	require.NoError(t, ctx.Err())

	assert.True(t, s.Finish(cycle, facts("a", "b", "a"), nil))
	assert.False(t, s.Busy)
	assert.True(t, s.Loaded)
	assert.Len(t, s.Facts, 2)
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "finished cycle releases its context")
}

func TestStaleCycleIsIgnored(t *testing.T) {
	s := NewAppState()

	first, firstCtx := s.Begin(context.Background(), domain.FetchRandom, "")
	second, _ := s.Begin(context.Background(), domain.FetchByTitle, "cat facts")
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)

	assert.False(t, s.Finish(first, facts("x"), nil))
	assert.True(t, s.Busy)
	assert.Empty(t, s.Facts)

	assert.True(t, s.Finish(second, facts("y"), nil))
	assert.Equal(t, "y", s.Facts[0].ID)
	assert.False(t, s.Finish(second, facts("z"), nil), "a cycle finishes once")
}

func TestFinishWithError(t *testing.T) {
	s := NewAppState()
	cycle, _ := s.Begin(context.Background(), domain.FetchRandom, "")

	s.Finish(cycle, nil, errors.New("boom"))
	assert.False(t, s.Busy)
	assert.Contains(t, s.Err, "boom")
	assert.Empty(t, s.Facts)
}

func TestFinishCancelledIsNotAnError(t *testing.T) {
	s := NewAppState()
	cycle, _ := s.Begin(context.Background(), domain.FetchRandom, "")

	s.Finish(cycle, nil, context.Canceled)
	assert.False(t, s.Busy)
	assert.Empty(t, s.Err)
}

func TestMoveSelectionScrolls(t *testing.T) {
	s := NewAppState()
	s.Facts = facts("1", "2", "3", "4", "5")
	s.ViewportHeight = 2

	s.MoveSelection(3)
	assert.Equal(t, 3, s.SelectedIndex)
	assert.Equal(t, 2, s.ViewportOffset)

	s.MoveSelection(10)
	assert.Equal(t, 4, s.SelectedIndex)

	s.MoveSelection(-10)
	assert.Equal(t, 0, s.SelectedIndex)
	assert.Equal(t, 0, s.ViewportOffset)

	f, ok := s.SelectedFact()
	require.True(t, ok)
	assert.Equal(t, "1", f.ID)
}

func TestMoveSuggestion(t *testing.T) {
	s := NewAppState()

	s.MoveSuggestion(1, 2)
	assert.Equal(t, 0, s.SuggestionIndex)
	s.MoveSuggestion(5, 2)
	assert.Equal(t, 1, s.SuggestionIndex)
	s.MoveSuggestion(-5, 2)
	assert.Equal(t, -1, s.SuggestionIndex)
	s.MoveSuggestion(1, 0)
	assert.Equal(t, -1, s.SuggestionIndex)
}

func TestToggleFocus(t *testing.T) {
	s := NewAppState()
	assert.Equal(t, FocusResults, s.ToggleFocus())
	assert.Equal(t, FocusSearch, s.ToggleFocus())
}
