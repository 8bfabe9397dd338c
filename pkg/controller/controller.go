package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/danl5/gotransition/pkg/common"
	"github.com/danl5/gotransition/pkg/config"
	"github.com/danl5/gotransition/pkg/model"
	"github.com/danl5/gotransition/pkg/scheduler"
)

const transitionBufferSize = 64

// NewController creates a controller for the given initial desired state.
// A nil cfg uses config.Default.
func NewController(
	desired bool,
	cfg *config.Config,
	sched scheduler.Scheduler,
	logger *slog.Logger) (*Controller, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	// the controller owns its copy, later edits by the caller have no effect
	own := *cfg
	if err := own.Validate(); err != nil {
		return nil, err
	}

	if sched == nil {
		return nil, fmt.Errorf("new controller, scheduler is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("new controller, logger is nil")
	}

	initial := model.StateHidden
	switch {
	case desired && own.SkipInitialEnter:
		initial = model.StateShown
	case desired:
		initial = model.StateEntered
	}

	c := &Controller{
		cfg:       &own,
		logger:    logger.With("component", "transition"),
		scheduler: sched,
		desired:   desired,
	}
	// initialize the phase FSM
	c.initializeFsm(initial)
	return c, nil
}

// Controller drives the phase lattice of one boolean transition. All inputs
// and scheduled callbacks are applied one at a time.
type Controller struct {
	mu sync.Mutex

	// cfg is the configuration for the transition
	cfg *config.Config
	// logger
	logger *slog.Logger

	// fsm is the finite state machine of the phase lattice
	fsm *fsm.FSM
	// scheduler runs auto-advances and the finalize timer
	scheduler scheduler.Scheduler

	// desired is the last value pushed by the caller
	desired bool
	// epoch increases on every lattice change, a scheduled task only runs
	// while the epoch it was armed in is current
	epoch uint64
	// pending is the single scheduled task, if any
	pending scheduler.Task

	// observers are called synchronously for every transition
	observers []func(model.PhaseTransition)
	// transitionChan is used to transmit phase transitions, created by Transitions
	transitionChan chan model.PhaseTransition
	closed         bool
}

// SetDesiredState pushes a new desired state. An unchanged value is a no-op.
// A value contradicting the direction in flight redirects the lattice at once.
func (c *Controller) SetDesiredState(next bool) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.ignore("set desired state", common.IgnoreClosed)
		return c.snapshot()
	}
	if next == c.desired {
		c.ignore("set desired state", common.IgnoreSameDesired)
		return c.snapshot()
	}

	c.desired = next
	if next {
		c.fire(model.EventShow)
	} else {
		c.fire(model.EventHide)
	}
	return c.snapshot()
}

// NotifyTransitionComplete reports that the exit animation finished. It only
// has an effect in the exited phase of a signal-driven controller.
func (c *Controller) NotifyTransitionComplete() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		c.ignore("notify complete", common.IgnoreClosed)
	case c.cfg.Strategy == config.StrategyDuration:
		c.ignore("notify complete", common.IgnoreTimerOwned)
	case c.current() != model.StateExited:
		c.ignore("notify complete", common.IgnoreNotExited)
	default:
		c.fire(model.EventFinish)
	}
	return c.snapshot()
}

// Advance moves an unstable phase to its stable counterpart without waiting
// for the scheduled auto-advance, which is cancelled.
func (c *Controller) Advance() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.ignore("advance", common.IgnoreClosed)
		return c.snapshot()
	}

	switch c.current() {
	case model.StateEntering:
		c.fire(model.EventSettleEnter)
	case model.StateExiting:
		c.fire(model.EventSettleExit)
	default:
		c.ignore("advance", common.IgnoreStablePhase)
	}
	return c.snapshot()
}

// Snapshot returns the current state of the controller.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// View returns the snapshot and the style of its phase, read together.
func (c *Controller) View() model.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot()
	return model.View{Snapshot: s, Style: c.cfg.Styles.Lookup(s.Phase)}
}

// StyleSelector maps the current phase through styles. It returns the empty
// string when no transition is active.
func (c *Controller) StyleSelector(styles model.StyleMap) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return styles.Lookup(c.current().Phase())
}

// Style resolves the current phase with the configured styles.
func (c *Controller) Style() string {
	return c.View().Style
}

// Config returns a copy of the validated configuration.
func (c *Controller) Config() config.Config {
	return *c.cfg
}

// Transitions returns the channel of lattice transitions made after the
// first call. Transitions are dropped when the consumer falls behind; use
// Observe to see every one. The channel is closed by Close.
func (c *Controller) Transitions() <-chan model.PhaseTransition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transitionChan == nil {
		c.transitionChan = make(chan model.PhaseTransition, transitionBufferSize)
		if c.closed {
			close(c.transitionChan)
		}
	}
	return c.transitionChan
}

// Observe registers fn to be called for every lattice transition. fn runs
// while the controller is locked and must not call back into it.
func (c *Controller) Observe(fn func(model.PhaseTransition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Visualize returns a visualization of the phase lattice in Graphviz format.
func (c *Controller) Visualize() string {
	return fsm.Visualize(c.fsm)
}

// Close cancels any scheduled task and closes the transitions channel.
// Later inputs leave the controller unchanged.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancelPending()
	c.epoch++
	if c.transitionChan != nil {
		close(c.transitionChan)
	}
	c.logger.Debug("transition closed", "state", c.current())
}

func (c *Controller) current() model.State {
	return model.State(c.fsm.Current())
}

func (c *Controller) snapshot() model.Snapshot {
	st := c.current()
	return model.Snapshot{
		Rendered: st.Rendered(),
		Phase:    st.Phase(),
		Desired:  c.desired,
	}
}

// fire applies ev to the lattice. The caller holds mu.
func (c *Controller) fire(ev model.PhaseEvent) bool {
	// check if the event is legal
	if !c.fsm.Can(ev.String()) {
		c.logger.Error("wrong event", "current state", c.fsm.Current(), "event", ev.String())
		return false
	}

	c.cancelPending()
	c.epoch++
	err := c.fsm.Event(context.Background(), ev.String())
	if err != nil {
		c.logger.Error("error state transition", "current state", c.fsm.Current(), "event", ev.String(), "error", err.Error())
		return false
	}
	return true
}

func (c *Controller) schedule(d time.Duration, ev model.PhaseEvent) {
	epoch := c.epoch
	c.pending = c.scheduler.Schedule(d, func() {
		c.runScheduled(epoch, ev)
	})
}

func (c *Controller) runScheduled(epoch uint64, ev model.PhaseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || epoch != c.epoch {
		c.ignore(ev.String(), common.IgnoreStaleTask)
		return
	}
	c.pending = nil
	c.fire(ev)
}

func (c *Controller) cancelPending() {
	if c.pending == nil {
		return
	}
	c.pending.Cancel()
	c.pending = nil
}

func (c *Controller) ignore(op string, reason common.IgnoreReason) {
	c.logger.Debug("input ignored", "op", op, "reason", reason.String(), "state", c.current())
}

func (c *Controller) enterEntering(_ context.Context, _ *fsm.Event) {
	// let the entering style apply for one opportunity before settling
	c.schedule(0, model.EventSettleEnter)
}

func (c *Controller) enterExiting(_ context.Context, _ *fsm.Event) {
	c.schedule(0, model.EventSettleExit)
}

func (c *Controller) enterExited(_ context.Context, _ *fsm.Event) {
	if c.cfg.Strategy != config.StrategyDuration {
		// wait for NotifyTransitionComplete, however long it takes
		return
	}
	c.schedule(c.cfg.Duration, model.EventFinish)
}

func (c *Controller) enterState(_ context.Context, ev *fsm.Event) {
	dst := model.State(ev.Dst)
	c.logger.Debug("phase transition", "event", ev.Event, "src", ev.Src, "dst", ev.Dst)
	pt := model.PhaseTransition{
		State:    dst,
		SrcState: model.State(ev.Src),
		Event:    model.PhaseEvent(ev.Event),
		Snapshot: model.Snapshot{
			Rendered: dst.Rendered(),
			Phase:    dst.Phase(),
			Desired:  c.desired,
		},
	}
	for _, fn := range c.observers {
		fn(pt)
	}
	c.sendPhaseTransition(pt)
}

func (c *Controller) sendPhaseTransition(pt model.PhaseTransition) {
	if c.transitionChan == nil {
		return
	}
	select {
	case c.transitionChan <- pt:
	default:
		c.logger.Warn("phase transition dropped, consumer is behind", "state", pt.State, "src", pt.SrcState)
	}
}

// initializeFsm initializes the phase lattice
func (c *Controller) initializeFsm(initial model.State) {
	c.fsm = fsm.NewFSM(
		initial.String(),
		fsm.Events{
			{
				Name: model.EventShow.String(),
				Src: []string{
					model.StateHidden.String(),
					model.StateExiting.String(),
					model.StateExited.String(),
				},
				Dst: model.StateEntering.String(),
			},
			{
				Name: model.EventHide.String(),
				Src: []string{
					model.StateShown.String(),
					model.StateEntering.String(),
					model.StateEntered.String(),
				},
				Dst: model.StateExiting.String(),
			},
			{
				Name: model.EventSettleEnter.String(),
				Src:  []string{model.StateEntering.String()},
				Dst:  model.StateEntered.String(),
			},
			{
				Name: model.EventSettleExit.String(),
				Src:  []string{model.StateExiting.String()},
				Dst:  model.StateExited.String(),
			},
			{
				Name: model.EventFinish.String(),
				Src:  []string{model.StateExited.String()},
				Dst:  model.StateHidden.String(),
			},
		},
		fsm.Callbacks{
			"enter_" + model.StateEntering.String(): c.enterEntering,
			"enter_" + model.StateExiting.String():  c.enterExiting,
			"enter_" + model.StateExited.String():   c.enterExited,
			"enter_state":                           c.enterState,
		},
	)
}
