// ABOUTME: End-to-end stage moves through the deal service and an in-memory store
// ABOUTME: Verifies remote state, board state and notifications agree

package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededDeals(t *testing.T) (*storetest.Fake, *services.DealService, *notify.Recorder) {
	t.Helper()
	fake := storetest.New()
	fake.Seed(store.TableDeals, 1, store.Record{"Name": "Acme", "stage_c": "qualified", "value_c": 1000.0})
	fake.Seed(store.TableDeals, 2, store.Record{"Name": "Globex", "stage_c": "qualified", "value_c": 500.0})

	rec := &notify.Recorder{}
	return fake, services.NewDealService(fake, rec), rec
}

func TestMoveThroughService(t *testing.T) {
	ctx := context.Background()
	fake, deals, rec := seededDeals(t)

	board := pipeline.NewBoard(deals.List(ctx))
	c := pipeline.NewController(board, deals, nil)

	outcome, err := c.Move(ctx, 1, models.StageProposal)
	require.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeMoved, outcome)

	stored, ok := fake.Stored(store.TableDeals, 1)
	require.True(t, ok)
	assert.Equal(t, "proposal", stored["stage_c"])

	s := board.Summary()
	assert.Equal(t, 1, s.Bucket(models.StageQualified).Count)
	assert.Equal(t, 1, s.Bucket(models.StageProposal).Count)
	assert.Equal(t, []string{"Deal moved to Proposal"}, rec.Successes())
}

func TestRollbackThroughService(t *testing.T) {
	ctx := context.Background()
	fake, deals, rec := seededDeals(t)
	fake.RejectRecords[1] = "stage locked"

	board := pipeline.NewBoard(deals.List(ctx))
	c := pipeline.NewController(board, deals, nil)

	outcome, err := c.Move(ctx, 1, models.StageProposal)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrRemoteFailure)
	assert.Equal(t, pipeline.OutcomeRolledBack, outcome)

	d, _ := board.Find(1)
	assert.Equal(t, models.StageQualified, d.Stage)
	assert.Equal(t, 2, board.Summary().Bucket(models.StageQualified).Count)
	assert.Len(t, rec.Errors(), 1)

	stored, _ := fake.Stored(store.TableDeals, 1)
	assert.Equal(t, "qualified", stored["stage_c"])
}

func TestNoopIssuesNoRemoteCall(t *testing.T) {
	ctx := context.Background()
	fake, deals, _ := seededDeals(t)

	board := pipeline.NewBoard(deals.List(ctx))
	c := pipeline.NewController(board, deals, nil)

	outcome, err := c.Move(ctx, 2, models.StageQualified)
	require.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeNoop, outcome)
	assert.Zero(t, fake.Calls("update"))
}

func TestRollbackKeepsReloadThatLandedInFlight(t *testing.T) {
	ctx := context.Background()
	fake, deals, _ := seededDeals(t)
	fake.RejectRecords[1] = "stage locked"
	fake.UpdateGate = make(chan struct{})

	board := pipeline.NewBoard(deals.List(ctx))
	c := pipeline.NewController(board, deals, nil)

	type result struct {
		outcome pipeline.Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := c.Move(ctx, 1, models.StageProposal)
		done <- result{outcome, err}
	}()

	assert.Eventually(t, func() bool {
		d, _ := board.Find(1)
		return d.Stage == models.StageProposal
	}, time.Second, 5*time.Millisecond)

	// Someone else moved the deal; the page reloads before our update fails
	reloaded := deals.List(ctx)
	for i := range reloaded {
		if reloaded[i].ID == 1 {
			reloaded[i].Stage = models.StageNegotiation
			reloaded[i].Name = "Acme Corp"
		}
	}
	board.Reload(reloaded)
	close(fake.UpdateGate)

	res := <-done
	assert.Equal(t, pipeline.OutcomeRolledBack, res.outcome)
	require.Error(t, res.err)

	d, _ := board.Find(1)
	assert.Equal(t, "Acme Corp", d.Name)
	assert.Equal(t, models.StageNegotiation, d.Stage)
	assert.Equal(t, 1, board.Summary().Bucket(models.StageNegotiation).Count)
}

func TestSummaryMatchesDealsAfterConcurrentReloads(t *testing.T) {
	board := pipeline.NewBoard(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for round := 0; round < 50; round++ {
				deals := make([]models.Deal, n%4+1)
				for j := range deals {
					deals[j] = models.Deal{ID: int64(j + 1), Stage: models.OrderedStages()[(n+round)%6]}
				}
				board.Reload(deals)
			}
		}(i)
	}
	wg.Wait()

	want := pipeline.Aggregate(board.Deals(), models.OrderedStages())
	got := board.Summary()
	for _, stage := range models.OrderedStages() {
		assert.Equal(t, want.Bucket(stage).Count, got.Bucket(stage).Count, stage)
	}
	assert.Equal(t, len(board.Deals()), got.Count())
}
