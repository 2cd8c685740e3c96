// Package sched provides cancellable one-shot timers behind an interface.
// Expiry and teardown logic schedules through it instead of calling
// time.AfterFunc directly, so tests can drive timers deterministically and
// cancellation is a structural guarantee rather than a convention.
package sched

import "time"

// Task is a handle to a scheduled function.
type Task interface {
	// Cancel stops the task if it has not fired yet. Safe to call more than once.
	Cancel()
}

// Scheduler schedules a function to run once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

type timerTask struct {
	t *time.Timer
}

func (t timerTask) Cancel() { t.t.Stop() }

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return timerTask{t: time.AfterFunc(d, fn)}
}

// New returns a Scheduler backed by time.AfterFunc.
func New() Scheduler { return timerScheduler{} }
