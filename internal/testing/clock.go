package testing

import (
	"sort"
	"sync"
	"time"

	"github.com/fdtlabs/fraudlens/internal/clock"
	"github.com/fdtlabs/fraudlens/internal/sched"
)

// FakeClock is a manually advanced clock for deterministic TTL tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a fake clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the frozen time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetNow pins the clock to a specific instant.
func (c *FakeClock) SetNow(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// FakeScheduler records scheduled functions and fires them when the test
// advances virtual time past their deadline. Callbacks run outside the lock
// so they may schedule follow-up tasks.
type FakeScheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	tasks   []*fakeTask
}

type fakeTask struct {
	sched     *FakeScheduler
	fn        func()
	due       time.Duration
	fired     bool
	cancelled bool
}

// Cancel stops the task if it has not fired yet.
func (t *fakeTask) Cancel() {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	t.cancelled = true
}

// NewFakeScheduler creates an empty fake scheduler.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc registers fn to fire once virtual time passes d from now.
func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) sched.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &fakeTask{sched: s, fn: fn, due: s.elapsed + d}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves virtual time forward and fires every due task in deadline
// order. Tasks scheduled by a firing callback are honored within the same
// advance when they fall inside the window.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.elapsed += d
	s.mu.Unlock()

	for {
		task := s.nextDue()
		if task == nil {
			return
		}
		task.fn()
	}
}

// nextDue pops the earliest unfired, uncancelled task within elapsed time.
func (s *FakeScheduler) nextDue() *fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*fakeTask
	for _, task := range s.tasks {
		if !task.fired && !task.cancelled && task.due <= s.elapsed {
			due = append(due, task)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	due[0].fired = true
	return due[0]
}

// Pending returns the number of scheduled tasks that have not fired or been
// cancelled.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, task := range s.tasks {
		if !task.fired && !task.cancelled {
			n++
		}
	}
	return n
}

// Verify interface implementation
var _ clock.Clock = (*FakeClock)(nil)
var _ sched.Scheduler = (*FakeScheduler)(nil)
