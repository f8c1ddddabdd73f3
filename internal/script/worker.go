package script

import (
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/SecorD0/selenium/internal/logging"
)

// worker mailbox message kinds, processed strictly in send order.
type workerMessageKind int

const (
	msgSetHost workerMessageKind = iota
	msgSetArgument
	msgExecute
	msgDetach
	msgShutdown
)

type workerMessage struct {
	kind workerMessageKind

	// scalar carries a copied argument; transfer carries a context-affine
	// reference through a one-shot slot. Exactly one of the two is set for
	// msgSetArgument; msgSetHost always uses transfer.
	scalar   interface{}
	transfer *transferSlot

	// status accompanies msgShutdown, recording why the worker never ran.
	status Status
}

// Worker is a dedicated, one-shot execution context for a single
// asynchronous invocation. It owns its execution loop; after a detach it
// may outlive the coordinator call and finish unobserved.
type Worker struct {
	source   string
	argCount int

	mailbox chan workerMessage
	ready   chan struct{}

	done     atomic.Bool
	status   atomic.Int32
	detached atomic.Bool

	log *logging.Logger
}

// startWorker spawns the worker loop. Readiness is signaled once the loop
// is consuming its mailbox.
func startWorker(source string, argCount int, log *logging.Logger) *Worker {
	w := &Worker{
		source:   source,
		argCount: argCount,
		// Sized so the full handoff plus dispatch never blocks the sender.
		mailbox: make(chan workerMessage, argCount+4),
		ready:   make(chan struct{}),
		log:     log,
	}
	go w.run()
	return w
}

// awaitReady blocks until the worker signals readiness or timeout elapses.
func (w *Worker) awaitReady(timeout time.Duration) bool {
	select {
	case <-w.ready:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Done reports whether execution has completed. Poll this; it never blocks.
func (w *Worker) Done() bool { return w.done.Load() }

// Status returns the execution outcome. Meaningful once Done reports true.
func (w *Worker) Status() Status { return Status(w.status.Load()) }

// Detach tells the worker to stop being supervised. Best effort and
// non-blocking: the worker may still be evaluating and will finish on its
// own, discarding the result.
func (w *Worker) Detach() {
	w.detached.Store(true)
	select {
	case w.mailbox <- workerMessage{kind: msgDetach}:
	default:
	}
}

// Await polls for completion no longer than timeout. On expiry the worker
// is detached to finish unobserved and StatusSuccess is returned, since a
// still-running script is not a failure here.
func (w *Worker) Await(timeout, poll time.Duration) Status {
	attempts := int(timeout / poll)
	for i := 0; i < attempts; i++ {
		if w.Done() {
			return w.Status()
		}
		time.Sleep(poll)
	}
	if w.Done() {
		return w.Status()
	}
	w.log.Debug("async execution still running at timeout, detaching worker")
	w.Detach()
	return StatusSuccess
}

// shutdown ends the loop of a worker whose dispatch was aborted before
// execute, so the goroutine does not linger on an idle mailbox. The
// status records why the worker never ran.
func (w *Worker) shutdown(status Status) {
	w.mailbox <- workerMessage{kind: msgShutdown, status: status}
}

// setHost hands the engine handle off through a one-shot transfer. The
// sender must not use the host afterwards.
func (w *Worker) setHost(host *Host) error {
	slot := newTransferSlot()
	if err := slot.send(host); err != nil {
		return err
	}
	w.mailbox <- workerMessage{kind: msgSetHost, transfer: slot}
	return nil
}

// setArgument forwards one positional argument. Object handles are
// context-affine and go through a transfer slot; scalars are copied.
func (w *Worker) setArgument(arg goja.Value) error {
	if obj, ok := arg.(*goja.Object); ok {
		slot := newTransferSlot()
		if err := slot.send(obj); err != nil {
			return err
		}
		w.mailbox <- workerMessage{kind: msgSetArgument, transfer: slot}
		return nil
	}
	var scalar interface{}
	if arg != nil {
		scalar = arg.Export()
	}
	w.mailbox <- workerMessage{kind: msgSetArgument, scalar: scalar}
	return nil
}

// execute posts the execute request without waiting for completion.
func (w *Worker) execute() {
	w.mailbox <- workerMessage{kind: msgExecute}
}

const transferReceiveTimeout = time.Second

func (w *Worker) run() {
	close(w.ready)

	var invocation *Script
	var host *Host

	for msg := range w.mailbox {
		switch msg.kind {
		case msgSetHost:
			v, err := msg.transfer.receive(transferReceiveTimeout)
			if err != nil {
				w.log.Warn("worker host transfer failed", zap.Error(err))
				w.finish(StatusMarshalFailed)
				return
			}
			host = v.(*Host)
			invocation = New(host, w.source, w.argCount)

		case msgSetArgument:
			if invocation == nil {
				w.finish(StatusMarshalFailed)
				return
			}
			if msg.transfer != nil {
				v, err := msg.transfer.receive(transferReceiveTimeout)
				if err != nil {
					w.log.Warn("worker argument transfer failed", zap.Error(err))
					w.finish(StatusMarshalFailed)
					return
				}
				if err := invocation.AddArgument(v.(*goja.Object)); err != nil {
					w.finish(StatusScriptError)
					return
				}
			} else {
				if err := w.addScalar(invocation, host, msg.scalar); err != nil {
					w.finish(StatusScriptError)
					return
				}
			}

		case msgExecute:
			if invocation == nil {
				w.finish(StatusHostUnavailable)
				return
			}
			status := invocation.Execute()
			w.finish(status)
			if w.detached.Load() {
				w.log.Debug("detached worker finished unobserved",
					zap.String("status", status.String()))
			}
			return

		case msgDetach:
			w.detached.Store(true)

		case msgShutdown:
			w.finish(msg.status)
			return
		}
	}
}

func (w *Worker) addScalar(invocation *Script, host *Host, scalar interface{}) error {
	if scalar == nil {
		return invocation.AddNullArgument()
	}
	return invocation.AddArgument(host.vm.ToValue(scalar))
}

func (w *Worker) finish(status Status) {
	w.status.Store(int32(status))
	w.done.Store(true)
}
