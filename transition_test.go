package gotransition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danl5/gotransition/pkg/log"
	"github.com/danl5/gotransition/pkg/model"
	"github.com/danl5/gotransition/pkg/scheduler"
)

func TestTransition_Views(t *testing.T) {
	clock := scheduler.NewManual()
	tr, err := NewTransition(false, &TransitionConfig{
		Entering:  "entering",
		Entered:   "entered",
		Exiting:   "exiting",
		Exited:    "exited",
		Scheduler: clock,
	}, log.Discard())
	require.NoError(t, err)
	defer tr.Close()

	rendered, style := tr.State()
	assert.False(t, rendered)
	assert.Equal(t, "", style)

	rendered, style = tr.Set(true)
	assert.True(t, rendered)
	assert.Equal(t, "entering", style)

	clock.Flush()
	rendered, style, phase := tr.StateWithPhase()
	assert.True(t, rendered)
	assert.Equal(t, "entered", style)
	assert.Equal(t, model.PhaseEntered, phase)

	tr.Set(false)
	clock.Flush()
	props := tr.Props()
	assert.Equal(t, "exited", props.ClassName)

	props.OnTransitionEnd()
	rendered, style, phase = tr.StateWithPhase()
	assert.False(t, rendered)
	assert.Equal(t, "", style)
	assert.Equal(t, model.PhaseIdle, phase)
}

func TestTransition_DurationDefault(t *testing.T) {
	clock := scheduler.NewManual()
	tr, err := NewTransition(true, &TransitionConfig{
		Strategy:  "duration",
		Scheduler: clock,
	}, log.Discard())
	require.NoError(t, err)
	defer tr.Close()

	tr.Set(false)
	clock.Advance(100 * time.Millisecond)
	rendered, _, phase := tr.StateWithPhase()
	assert.True(t, rendered)
	assert.Equal(t, model.PhaseExited, phase)

	clock.Advance(100 * time.Millisecond)
	rendered, _ = tr.State()
	assert.False(t, rendered)
}

func TestTransition_BadStrategy(t *testing.T) {
	_, err := NewTransition(false, &TransitionConfig{Strategy: "spring"}, log.Discard())
	assert.Error(t, err)
}

func TestTransition_CallBacks(t *testing.T) {
	var mu sync.Mutex
	var got []model.State
	record := func(_ context.Context, pt model.PhaseTransition) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, pt.State)
		return nil
	}
	failed := errors.New("unmount failed")

	clock := scheduler.NewManual()
	tr, err := NewTransition(false, &TransitionConfig{
		Scheduler: clock,
		CallBacks: &PhaseCallBacks{
			Entering: record,
			Entered:  record,
			Exiting:  record,
			Exited:   record,
			Hidden: func(ctx context.Context, pt model.PhaseTransition) error {
				assert.False(t, pt.Snapshot.Rendered)
				return failed
			},
		},
	}, log.Discard())
	require.NoError(t, err)

	tr.Set(true)
	clock.Flush()
	tr.Set(false)
	clock.Flush()
	tr.CompletionHandler()()

	select {
	case err := <-tr.Errors():
		assert.ErrorIs(t, err, failed)
	case <-time.After(time.Second):
		t.Fatal("no callback error delivered")
	}

	tr.Close()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []model.State{
		model.StateEntering,
		model.StateEntered,
		model.StateExiting,
		model.StateExited,
	}, got)
}

func TestTransition_Realtime(t *testing.T) {
	tr, err := NewTransition(true, &TransitionConfig{
		Strategy: "duration",
		Duration: 20,
		Exited:   "fade-out",
	}, log.Discard())
	require.NoError(t, err)
	defer tr.Close()

	tr.Set(false)
	assert.Eventually(t, func() bool {
		rendered, _ := tr.State()
		return !rendered
	}, time.Second, 5*time.Millisecond)
}

func TestTransition_ConsistentViewUnderTimers(t *testing.T) {
	styles := model.StyleMap{
		Entering: "entering",
		Entered:  "entered",
		Exiting:  "exiting",
		Exited:   "exited",
	}
	tr, err := NewTransition(false, &TransitionConfig{
		Strategy: "duration",
		Duration: 1,
		Entering: styles.Entering,
		Entered:  styles.Entered,
		Exiting:  styles.Exiting,
		Exited:   styles.Exited,
	}, log.Discard())
	require.NoError(t, err)
	defer tr.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		desired := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			desired = !desired
			tr.Controller().SetDesiredState(desired)
			tr.Controller().Advance()
		}
	}()

	for i := 0; i < 20000; i++ {
		rendered, style, phase := tr.StateWithPhase()
		if !assert.Equal(t, styles.Lookup(phase), style, "read %d: rendered=%v phase=%s", i, rendered, phase) {
			break
		}
		if phase != model.PhaseIdle && !assert.True(t, rendered, "read %d: phase=%s", i, phase) {
			break
		}
	}
	close(stop)
	wg.Wait()
}

func TestTransition_SlowCallBacksMissNothing(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var hidden int

	clock := scheduler.NewManual()
	tr, err := NewTransition(false, &TransitionConfig{
		Scheduler: clock,
		CallBacks: &PhaseCallBacks{
			Entering: func(ctx context.Context, _ model.PhaseTransition) error {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil
			},
			Hidden: func(context.Context, model.PhaseTransition) error {
				mu.Lock()
				defer mu.Unlock()
				hidden++
				return nil
			},
		},
	}, log.Discard())
	require.NoError(t, err)

	// far more transitions than any channel buffer while the first callback blocks
	const cycles = 200
	for i := 0; i < cycles; i++ {
		tr.Set(true)
		clock.Flush()
		tr.Set(false)
		clock.Flush()
		tr.CompletionHandler()()
	}
	close(release)
	tr.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, cycles, hidden)
}
