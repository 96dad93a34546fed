// Package schedulepkg provides the clock and the timers used to drive
// recurring and deferred work.
package schedulepkg

import (
	"sync"
	"time"
)

// Task is a scheduled function that can be cancelled.
type Task interface {
	// Stop cancels the task. It returns false if the task was already stopped
	// or, for one-shot tasks, has already fired.
	Stop() bool
}

// Scheduler supplies the current time and runs functions later.
//
// Functions run on their own goroutine and must do their own locking.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
	Every(d time.Duration, f func()) Task
}

// Real is the Scheduler backed by the runtime timers.
type Real struct{}

// Now returns the current local time.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc calls f once after d.
func (Real) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Every calls f every d until the returned task is stopped.
func (Real) Every(d time.Duration, f func()) Task {
	t := &tickerTask{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.ticker.C:
				select {
				case <-t.done:
					return
				default:
				}

				f()
			case <-t.done:
				return
			}
		}
	}()

	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) Stop() bool {
	stopped := false

	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})

	return stopped
}
