package job

import "sync"

// WakeLock keeps the network interface held while any job is in flight.
// Activation happens on the first acquire and release on the last;
// acquire/release pairs may arrive concurrently from multiple jobs.
type WakeLock struct {
	mu      sync.Mutex
	holders int

	activate   func()
	deactivate func()
}

// NewWakeLock builds a lock around activation hooks. Either hook may be
// nil.
func NewWakeLock(activate, deactivate func()) *WakeLock {
	return &WakeLock{activate: activate, deactivate: deactivate}
}

func (w *WakeLock) Acquire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.holders++
	if w.holders == 1 && w.activate != nil {
		w.activate()
	}
}

func (w *WakeLock) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.holders == 0 {
		return
	}
	w.holders--
	if w.holders == 0 && w.deactivate != nil {
		w.deactivate()
	}
}

// Holders returns the current holder count.
func (w *WakeLock) Holders() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.holders
}
