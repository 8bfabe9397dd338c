package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle on a scheduled callback.
type Task interface {
	// Cancel stops the task. It reports whether the task was still pending.
	Cancel() bool
}

// Scheduler runs callbacks after a delay. A zero delay means the next
// scheduling opportunity, never synchronously inside Schedule.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// Realtime schedules callbacks on the wall clock.
type Realtime struct{}

func (Realtime) Schedule(d time.Duration, fn func()) Task {
	return &realtimeTask{timer: time.AfterFunc(d, fn)}
}

type realtimeTask struct {
	timer *time.Timer
}

func (t *realtimeTask) Cancel() bool {
	return t.timer.Stop()
}

// Manual is a virtual clock. Callbacks only run from Advance or Flush, on the
// caller's goroutine, ordered by due time and then by scheduling order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

func NewManual() *Manual {
	return &Manual{}
}

type manualTask struct {
	m    *Manual
	due  time.Duration
	seq  uint64
	fn   func()
	done bool
}

func (t *manualTask) Cancel() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.m.remove(t)
	return true
}

func (m *Manual) Schedule(d time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{m: m, due: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	return t
}

// Now returns the virtual time elapsed since the clock was created.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of tasks waiting to run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, running every task that becomes due,
// including tasks scheduled by those callbacks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if len(m.tasks) == 0 || m.tasks[0].due > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		t.done = true
		if t.due > m.now {
			m.now = t.due
		}
		m.mu.Unlock()

		t.fn()
	}
}

// Flush runs the tasks due at the current time.
func (m *Manual) Flush() {
	m.Advance(0)
}

func (m *Manual) remove(t *manualTask) {
	for i, task := range m.tasks {
		if task == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}
