package gotransition

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danl5/gotransition/pkg/config"
	"github.com/danl5/gotransition/pkg/controller"
	"github.com/danl5/gotransition/pkg/log"
	"github.com/danl5/gotransition/pkg/model"
	"github.com/danl5/gotransition/pkg/scheduler"
)

const (
	// exited phase duration for the duration strategy
	defaultDuration = 200

	// callback timeout
	defaultCallBackTimeout = 5
)

// NewTransition creates a new Transition for the initial desired state
func NewTransition(desired bool, cfg *TransitionConfig, logger *slog.Logger) (*Transition, error) {
	if cfg == nil {
		cfg = &TransitionConfig{}
	}
	if logger == nil {
		logger = log.DefaultLogger
	}

	duration := cfg.Duration
	if cfg.Duration == 0 {
		duration = defaultDuration
	}
	callBackTimeout := cfg.CallBackTimeout
	if cfg.CallBackTimeout == 0 {
		callBackTimeout = defaultCallBackTimeout
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = scheduler.Realtime{}
	}

	// new controller instance
	c, err := controller.NewController(desired, &config.Config{
		Strategy:         config.Strategy(cfg.Strategy),
		SkipInitialEnter: cfg.SkipInitialEnter,
		Styles: model.StyleMap{
			Entering: cfg.Entering,
			Entered:  cfg.Entered,
			Exiting:  cfg.Exiting,
			Exited:   cfg.Exited,
		},
		Duration: time.Duration(duration) * time.Millisecond,
	}, sched, logger)
	if err != nil {
		return nil, err
	}

	t := &Transition{
		cfg:             cfg,
		logger:          logger,
		callBackTimeout: callBackTimeout,
		controller:      c,
		callBacks:       cfg.CallBacks,
		errChan:         make(chan error, 10),
		done:            make(chan struct{}),
	}
	t.queueCond = sync.NewCond(&t.queueMu)
	c.Observe(t.enqueue)
	// handle phase transitions in a separate goroutine
	go t.handlePhaseTransition()
	return t, nil
}

// Transition exposes a controller as (state, style) and (state, style, phase) views
type Transition struct {
	// callBacks stores the callbacks to be triggered when the phase changes
	callBacks *PhaseCallBacks
	// callBackTimeout is the timeout for the callbacks, in seconds
	callBackTimeout int
	// controller drives the phase lattice
	controller *controller.Controller
	// errChan is a channel for callback errors
	errChan chan error
	// done is closed once the transition handler has exited
	done chan struct{}

	// queue holds transitions not yet dispatched to callBacks, it is unbounded
	// so a slow callback delays later ones instead of losing them
	queue     []model.PhaseTransition
	queueMu   sync.Mutex
	queueCond *sync.Cond
	stopped   bool

	// cfg is the configuration for the transition
	cfg *TransitionConfig
	// logger is used for logging
	logger *slog.Logger
}

// Set pushes a new desired state and returns the resulting (state, style) pair.
func (t *Transition) Set(desired bool) (bool, string) {
	t.controller.SetDesiredState(desired)
	return t.State()
}

// State returns whether the element should be rendered and its style.
func (t *Transition) State() (bool, string) {
	rendered, style, _ := t.StateWithPhase()
	return rendered, style
}

// StateWithPhase returns the rendered state, the style and the current phase.
func (t *Transition) StateWithPhase() (bool, string, model.Phase) {
	v := t.controller.View()
	return v.Rendered, v.Style, v.Phase
}

// Props returns the properties to apply to the transitioning element.
func (t *Transition) Props() Props {
	return Props{
		ClassName:       t.controller.View().Style,
		OnTransitionEnd: t.CompletionHandler(),
	}
}

// CompletionHandler returns the function the rendering layer calls when the
// exit animation has ended.
func (t *Transition) CompletionHandler() func() {
	return func() {
		t.controller.NotifyTransitionComplete()
	}
}

// Controller returns the underlying controller.
func (t *Transition) Controller() *controller.Controller {
	return t.controller
}

// Errors returns a receive-only channel of callback errors
func (t *Transition) Errors() <-chan error {
	return t.errChan
}

// Close stops the controller and waits for queued callbacks to return.
func (t *Transition) Close() {
	t.controller.Close()

	t.queueMu.Lock()
	t.stopped = true
	t.queueCond.Broadcast()
	t.queueMu.Unlock()
	<-t.done
}

// enqueue runs under the controller lock and never blocks on callbacks.
func (t *Transition) enqueue(pt model.PhaseTransition) {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	t.queue = append(t.queue, pt)
	t.queueCond.Signal()
}

func (t *Transition) next() (model.PhaseTransition, bool) {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	for len(t.queue) == 0 && !t.stopped {
		t.queueCond.Wait()
	}
	if len(t.queue) == 0 {
		return model.PhaseTransition{}, false
	}
	pt := t.queue[0]
	t.queue[0] = model.PhaseTransition{}
	t.queue = t.queue[1:]
	return pt, true
}

func (t *Transition) sendError(err error) {
	select {
	case t.errChan <- err:
	default:
	}
}

func (t *Transition) handlePhaseTransition() {
	defer close(t.done)

	for {
		pt, ok := t.next()
		if !ok {
			break
		}
		t.logger.Debug("transition, phase transition", "event", pt.Event.String(), "state", pt.State, "src", pt.SrcState)
		if t.callBacks == nil {
			continue
		}

		var err error
		switch pt.State {
		case model.StateEntering:
			err = t.execPhaseHandler(t.callBacks.Entering, pt)
		case model.StateEntered:
			err = t.execPhaseHandler(t.callBacks.Entered, pt)
		case model.StateExiting:
			err = t.execPhaseHandler(t.callBacks.Exiting, pt)
		case model.StateExited:
			err = t.execPhaseHandler(t.callBacks.Exited, pt)
		case model.StateHidden:
			err = t.execPhaseHandler(t.callBacks.Hidden, pt)
		}
		if err != nil {
			t.sendError(err)
		}
	}
	t.logger.Debug("transition, phase transition queue is closed")
}

func (t *Transition) execPhaseHandler(ph PhaseHandler, pt model.PhaseTransition) error {
	if ph == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(t.callBackTimeout)*time.Second)
	defer cancel()

	return ph(ctx, pt)
}

// TransitionConfig is a struct that represents the configuration for a transition.
type TransitionConfig struct {
	// Strategy is "signal" (default) or "duration"
	Strategy string
	// SkipInitialEnter suppresses the animated entry when starting shown
	SkipInitialEnter bool
	// Style identifiers per phase, empty when absent
	Entering string
	Entered  string
	Exiting  string
	Exited   string
	// Time spent in the exited phase for the duration strategy, in
	// milliseconds. Zero means the 200ms default.
	Duration uint
	// Scheduler runs auto-advances and timers, wall clock when nil
	Scheduler scheduler.Scheduler
	// Phase callbacks
	CallBacks *PhaseCallBacks
	// Timeout for callbacks, in seconds
	CallBackTimeout int
}

// Props are the properties of the element that carries the transition.
type Props struct {
	// ClassName is the style identifier of the current phase
	ClassName string
	// OnTransitionEnd must be invoked when the element's animation ends
	OnTransitionEnd func()
}

type PhaseHandler func(ctx context.Context, pt model.PhaseTransition) error

// PhaseCallBacks is a struct to hold phase callbacks. Callbacks run one at a
// time, in transition order, on a goroutine of their own; every transition
// is delivered, however slow a callback is.
type PhaseCallBacks struct {
	// Entering is called when the entering phase starts
	Entering PhaseHandler
	// Entered is called when the entered phase starts
	Entered PhaseHandler
	// Exiting is called when the exiting phase starts
	Exiting PhaseHandler
	// Exited is called when the exited phase starts
	Exited PhaseHandler
	// Hidden is called once the exit has finalized and the element is unmounted
	Hidden PhaseHandler
}
