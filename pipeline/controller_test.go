// ABOUTME: Tests for the stage transition controller
// ABOUTME: Covers moves, no-op drops, rollback, the single in-flight rule and detach

package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
	start chan struct{}
}

func (f *fakeUpdater) UpdateStage(ctx context.Context, id int64, stage string) (models.Deal, error) {
	f.mu.Lock()
	f.calls++
	gate, start, err := f.gate, f.start, f.err
	f.mu.Unlock()

	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.Deal{}, err
	}
	return models.Deal{ID: id, Name: "server", Stage: stage, Value: decimal.NewFromInt(1000), UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeUpdater) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func scenarioBoard() *Board {
	return NewBoard([]models.Deal{
		{ID: 1, Name: "Acme", Stage: models.StageQualified, Value: decimal.NewFromInt(1000)},
		{ID: 2, Name: "Globex", Stage: models.StageQualified, Value: decimal.NewFromInt(500)},
	})
}

func TestControllerMoveSuccess(t *testing.T) {
	board := scenarioBoard()
	up := &fakeUpdater{}
	c := NewController(board, up, nil)

	require.NoError(t, c.StartDrag(1))
	assert.Equal(t, Dragging, c.State().Phase)
	assert.NotEmpty(t, c.State().Gesture)

	outcome, err := c.Drop(context.Background(), models.StageProposal)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMoved, outcome)
	assert.Equal(t, Idle, c.State().Phase)
	assert.Equal(t, 1, up.Calls())

	s := board.Summary()
	assert.Equal(t, 1, s.Bucket(models.StageQualified).Count)
	assert.Equal(t, 1, s.Bucket(models.StageProposal).Count)
	assert.True(t, decimal.NewFromInt(500).Equal(s.Bucket(models.StageQualified).TotalValue))

	// The server's copy replaces the local one
	moved, _ := board.Find(1)
	assert.Equal(t, "server", moved.Name)
	assert.False(t, moved.UpdatedAt.IsZero())
}

func TestControllerNoopDrop(t *testing.T) {
	board := scenarioBoard()
	up := &fakeUpdater{}
	c := NewController(board, up, nil)
	before := board.Summary()

	require.NoError(t, c.StartDrag(1))
	outcome, err := c.Drop(context.Background(), models.StageQualified)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoop, outcome)
	assert.Zero(t, up.Calls())
	assert.Equal(t, before, board.Summary())
	assert.Equal(t, Idle, c.State().Phase)
}

func TestControllerRollback(t *testing.T) {
	board := NewBoard([]models.Deal{{ID: 1, Name: "Acme", Stage: models.StageLead, Value: decimal.NewFromInt(100)}})
	up := &fakeUpdater{err: errors.New("remote rejected")}
	c := NewController(board, up, nil)
	leadBefore := board.Summary().Bucket(models.StageLead).Count

	outcome, err := c.Move(context.Background(), 1, models.StageQualified)
	require.Error(t, err)
	assert.Equal(t, OutcomeRolledBack, outcome)

	d, _ := board.Find(1)
	assert.Equal(t, models.StageLead, d.Stage)
	assert.Equal(t, leadBefore, board.Summary().Bucket(models.StageLead).Count)
	assert.Equal(t, 0, board.Summary().Bucket(models.StageQualified).Count)
	assert.Equal(t, Idle, c.State().Phase)
}

func TestControllerRejectsInvalidInput(t *testing.T) {
	board := scenarioBoard()
	up := &fakeUpdater{}
	c := NewController(board, up, nil)

	assert.ErrorIs(t, c.StartDrag(99), ErrUnknownDeal)

	_, err := c.Drop(context.Background(), models.StageLead)
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, c.StartDrag(1))
	_, err = c.Drop(context.Background(), "on-hold")
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.Equal(t, Idle, c.State().Phase)
	assert.Zero(t, up.Calls())

	assert.ErrorIs(t, c.Hover(models.StageLead), ErrNotDragging)

	require.NoError(t, c.StartDrag(1))
	require.NoError(t, c.Hover(models.StageProposal))
	assert.Equal(t, models.StageProposal, c.State().Target)
	c.CancelDrag()
	assert.Equal(t, Idle, c.State().Phase)
	assert.Empty(t, c.State().Target)
}

func TestControllerSingleInFlight(t *testing.T) {
	board := scenarioBoard()
	up := &fakeUpdater{gate: make(chan struct{}), start: make(chan struct{})}
	c := NewController(board, up, nil)

	require.NoError(t, c.StartDrag(1))

	done := make(chan Outcome)
	go func() {
		outcome, _ := c.Drop(context.Background(), models.StageProposal)
		done <- outcome
	}()

	<-up.start
	assert.Equal(t, Dropping, c.State().Phase)

	// The optimistic move is already visible
	inFlight, _ := board.Find(1)
	assert.Equal(t, models.StageProposal, inFlight.Stage)

	assert.ErrorIs(t, c.StartDrag(2), ErrTransitionInFlight)
	_, err := c.Drop(context.Background(), models.StageLead)
	assert.ErrorIs(t, err, ErrTransitionInFlight)

	close(up.gate)
	assert.Equal(t, OutcomeMoved, <-done)

	require.NoError(t, c.StartDrag(2))
}

func TestControllerDiscardsAfterDetach(t *testing.T) {
	board := scenarioBoard()
	up := &fakeUpdater{gate: make(chan struct{}), start: make(chan struct{})}
	c := NewController(board, up, nil)

	require.NoError(t, c.StartDrag(1))

	done := make(chan Outcome)
	go func() {
		outcome, _ := c.Drop(context.Background(), models.StageProposal)
		done <- outcome
	}()

	<-up.start
	board.Detach()
	close(up.gate)

	assert.Equal(t, OutcomeDiscarded, <-done)

	// The server result never replaced the optimistic copy
	d, _ := board.Find(1)
	assert.Equal(t, "Acme", d.Name)
}

func TestBoardWatch(t *testing.T) {
	board := scenarioBoard()
	var seen []Summary
	board.Watch(func(s Summary) { seen = append(seen, s) })

	board.Reload([]models.Deal{{ID: 5, Stage: models.StageLead, Value: decimal.NewFromInt(1)}})

	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Bucket(models.StageLead).Count)
	assert.Equal(t, 0, seen[0].Bucket(models.StageQualified).Count)
}
