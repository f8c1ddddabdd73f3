package script

import (
	"errors"
	"sync/atomic"
	"time"
)

var (
	errTransferReused   = errors.New("transfer slot already consumed")
	errTransferEmpty    = errors.New("transfer slot has no value")
	errTransferTimedOut = errors.New("transfer slot receive timed out")
)

// transferSlot moves one context-affine reference between execution
// contexts. Send and Receive each succeed exactly once; the sending side
// must not touch the reference after a successful Send.
type transferSlot struct {
	ch       chan interface{}
	sent     atomic.Bool
	consumed atomic.Bool
}

func newTransferSlot() *transferSlot {
	return &transferSlot{ch: make(chan interface{}, 1)}
}

// send places the reference in the slot. A second send fails.
func (t *transferSlot) send(v interface{}) error {
	if !t.sent.CompareAndSwap(false, true) {
		return errTransferReused
	}
	t.ch <- v
	return nil
}

// receive consumes the reference. A second receive fails, as does receiving
// from a slot nothing was sent to within timeout.
func (t *transferSlot) receive(timeout time.Duration) (interface{}, error) {
	if !t.consumed.CompareAndSwap(false, true) {
		return nil, errTransferReused
	}
	select {
	case v := <-t.ch:
		return v, nil
	case <-time.After(timeout):
		if !t.sent.Load() {
			return nil, errTransferEmpty
		}
		return nil, errTransferTimedOut
	}
}
