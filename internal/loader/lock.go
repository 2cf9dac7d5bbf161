package loader

import "sync/atomic"

// LoadLock rejects overlapping load runs without blocking.
// sync.Mutex.TryLock would do, but its use is discouraged outside of
// specialised code.
type LoadLock struct {
	state atomic.Int32 // 0 = idle, 1 = loading
}

// TryAcquire takes the lock if no load is running
func (l *LoadLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *LoadLock) Release() {
	l.state.Store(0)
}

// Busy reports whether a load currently holds the lock
func (l *LoadLock) Busy() bool {
	return l.state.Load() == 1
}
