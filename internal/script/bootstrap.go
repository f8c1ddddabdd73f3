package script

import (
	"sync/atomic"
	"time"
)

// BootstrapSignal is an exclusive token guaranteeing at most one worker
// bootstrap handshake in flight at a time. It is held only for the
// handshake window, never for the worker's execution lifetime.
//
// Scope is process-local: each driver process owns its engine, so
// serializing handshakes across unrelated processes would buy nothing.
type BootstrapSignal struct {
	held atomic.Bool
}

// asyncBootstrap serializes worker handshakes for the whole process.
var asyncBootstrap BootstrapSignal

// TryAcquire attempts to take the signal without waiting.
func (b *BootstrapSignal) TryAcquire() bool {
	return b.held.CompareAndSwap(false, true)
}

// Release returns the signal. Safe to call once per successful acquire.
func (b *BootstrapSignal) Release() {
	b.held.Store(false)
}

// acquire retries with a fixed delay up to attempts times. This is
// admission control, not a fairness guarantee: contenders are not queued,
// they re-poll.
func (b *BootstrapSignal) acquire(attempts int, delay time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if b.TryAcquire() {
			return true
		}
		time.Sleep(delay)
	}
	return false
}
