package job

import (
	"sync"
	"time"
)

// DelayedAction runs a function once after a delay unless cancelled
// first. A timer that fires after Cancel is a no-op.
type DelayedAction struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// After schedules fn to run on its own goroutine after d.
func After(d time.Duration, fn func()) *DelayedAction {
	a := &DelayedAction{}
	a.timer = time.AfterFunc(d, func() {
		a.mu.Lock()
		if a.cancelled {
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()
		fn()
	})
	return a
}

// Cancel stops the action. Safe to call more than once or after the
// action has fired.
func (a *DelayedAction) Cancel() {
	a.mu.Lock()
	a.cancelled = true
	a.mu.Unlock()
	a.timer.Stop()
}
