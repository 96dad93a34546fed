package schedulepkg

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by a virtual clock.
//
// Nothing fires until Advance is called, which makes timer dependent code
// deterministic in tests.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

// NewManual returns a Manual scheduler whose clock starts at now.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

type manualTask struct {
	m        *Manual
	seq      int
	when     time.Time
	interval time.Duration
	f        func()
	stopped  bool
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// AfterFunc schedules f to run once when the clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	return m.add(d, 0, f)
}

// Every schedules f to run every d.
func (m *Manual) Every(d time.Duration, f func()) Task {
	return m.add(d, d, f)
}

func (m *Manual) add(d, interval time.Duration, f func()) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		m:        m,
		seq:      m.seq,
		when:     m.now.Add(d),
		interval: interval,
		f:        f,
	}
	m.tasks = append(m.tasks, t)

	return t
}

// Pending returns the number of tasks that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tasks)
}

// Advance moves the clock forward by d and runs every task that falls due,
// in time order. Tasks run without the scheduler lock held, so they may
// schedule or stop other tasks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()

		t := m.next(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()

			return
		}

		m.now = t.when
		if t.interval > 0 {
			t.when = t.when.Add(t.interval)
		} else {
			m.remove(t)
		}

		m.mu.Unlock()

		t.f()
	}
}

// next returns the earliest task due at or before target. Callers hold mu.
func (m *Manual) next(target time.Time) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].when.Equal(m.tasks[j].when) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].when.Before(m.tasks[j].when)
	})

	if len(m.tasks) == 0 || m.tasks[0].when.After(target) {
		return nil
	}

	return m.tasks[0]
}

// remove drops t from the queue. Callers hold mu.
func (m *Manual) remove(t *manualTask) {
	t.stopped = true

	for i, other := range m.tasks {
		if other == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.stopped {
		return false
	}

	t.m.remove(t)

	return true
}
