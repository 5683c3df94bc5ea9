// ABOUTME: Stage transition controller for drag-and-drop deal moves
// ABOUTME: Idle/Dragging/Dropping state machine with optimistic update and rollback

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/state"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrTransitionInFlight = errors.New("a stage transition is still in flight")
	ErrUnknownDeal        = errors.New("deal is not on the board")
	ErrInvalidStage       = errors.New("unknown stage")
	ErrNotDragging        = errors.New("no drag in progress")
)

// StageUpdater persists a deal's stage and returns the stored deal.
type StageUpdater interface {
	UpdateStage(ctx context.Context, id int64, stage string) (models.Deal, error)
}

type Phase int

const (
	Idle Phase = iota
	Dragging
	Dropping
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Dropping:
		return "dropping"
	default:
		return "idle"
	}
}

// State is the controller's current gesture.
type State struct {
	Phase   Phase  `json:"phase"`
	DealID  int64  `json:"deal_id,omitempty"`
	Target  string `json:"target,omitempty"`
	Gesture string `json:"gesture,omitempty"`
}

// Outcome says what a drop did.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeMoved
	OutcomeRolledBack
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "noop"
	}
}

// Controller tracks one drag gesture at a time against a Board.
type Controller struct {
	board   *Board
	updater StageUpdater
	log     *logrus.Entry

	mu    sync.Mutex
	state State
}

func NewController(board *Board, updater StageUpdater, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		board:   board,
		updater: updater,
		log:     log.WithField("component", "stage_controller"),
	}
}

// State returns the current gesture.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartDrag picks up deal id. Picking up while already dragging switches
// deals; it is rejected while a drop is resolving.
func (c *Controller) StartDrag(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == Dropping {
		return ErrTransitionInFlight
	}
	if _, ok := c.board.Find(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDeal, id)
	}

	c.state = State{Phase: Dragging, DealID: id, Gesture: ulid.Make().String()}
	c.log.WithFields(logrus.Fields{"gesture": c.state.Gesture, "deal_id": id}).Debug("drag started")
	return nil
}

// Hover records the stage the dragged deal is currently over.
func (c *Controller) Hover(stage string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != Dragging {
		return ErrNotDragging
	}
	c.state.Target = stage
	return nil
}

// CancelDrag abandons a drag that has not been dropped.
func (c *Controller) CancelDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == Dragging {
		c.state = State{}
	}
}

// Drop releases the dragged deal over stage. A drop on the deal's current
// stage does nothing remotely. Otherwise the board moves the deal at once,
// the stage is persisted, and the board takes the stored deal on success
// or reverts on failure. The controller is Idle again when Drop returns.
func (c *Controller) Drop(ctx context.Context, stage string) (Outcome, error) {
	c.mu.Lock()
	if c.state.Phase != Dragging {
		phase := c.state.Phase
		c.mu.Unlock()
		if phase == Dropping {
			return OutcomeNoop, ErrTransitionInFlight
		}
		return OutcomeNoop, ErrNotDragging
	}

	gesture := c.state
	deal, ok := c.board.Find(gesture.DealID)
	switch {
	case !ok:
		c.state = State{}
		c.mu.Unlock()
		return OutcomeNoop, fmt.Errorf("%w: %d", ErrUnknownDeal, gesture.DealID)
	case deal.Stage == stage:
		c.state = State{}
		c.mu.Unlock()
		return OutcomeNoop, nil
	case !models.IsKnownStage(stage):
		c.state = State{}
		c.mu.Unlock()
		return OutcomeNoop, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	c.state = State{Phase: Dropping, DealID: deal.ID, Target: stage, Gesture: gesture.Gesture}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = State{}
		c.mu.Unlock()
	}()

	log := c.log.WithFields(logrus.Fields{
		"gesture": gesture.Gesture,
		"deal_id": deal.ID,
		"from":    deal.Stage,
		"to":      stage,
	})

	_, err := state.Optimistic(ctx, c.board.deals, deal.ID,
		func(d models.Deal) models.Deal {
			d.Stage = stage
			return d
		},
		func(ctx context.Context) (models.Deal, error) {
			return c.updater.UpdateStage(ctx, deal.ID, stage)
		},
	)

	if c.board.Detached() {
		log.Debug("board detached before transition resolved; result discarded")
		return OutcomeDiscarded, err
	}
	if errors.Is(err, state.ErrMissing) {
		return OutcomeNoop, fmt.Errorf("%w: %d", ErrUnknownDeal, deal.ID)
	}
	if err != nil {
		log.WithError(err).Warn("stage transition rolled back")
		return OutcomeRolledBack, err
	}

	log.Info("deal moved")
	return OutcomeMoved, nil
}

// Move runs a whole gesture: pick up id and drop it on stage.
func (c *Controller) Move(ctx context.Context, id int64, stage string) (Outcome, error) {
	if err := c.StartDrag(id); err != nil {
		return OutcomeNoop, err
	}
	return c.Drop(ctx, stage)
}
