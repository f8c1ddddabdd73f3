package script

import (
	"time"

	"go.uber.org/zap"
)

// AsyncConfig tunes the asynchronous execution handshake.
type AsyncConfig struct {
	// BootstrapAttempts and BootstrapDelay bound the wait for the exclusive
	// bootstrap signal before giving up with StatusConcurrentAsync.
	BootstrapAttempts int
	BootstrapDelay    time.Duration

	// StartupTimeout bounds the wait for the worker readiness signal.
	StartupTimeout time.Duration

	// PollInterval is the completion poll period. ExecuteAsync returns by
	// caller timeout plus one interval at the latest.
	PollInterval time.Duration

	// signal overrides the process-wide bootstrap signal; nil selects it.
	// Injectable so concurrent tests do not contend on global state.
	signal *BootstrapSignal
}

// DefaultAsyncConfig mirrors the driver's historical handshake tuning:
// fifty 50ms signal retries, a five second startup window, 10ms polls.
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		BootstrapAttempts: 50,
		BootstrapDelay:    50 * time.Millisecond,
		StartupTimeout:    5 * time.Second,
		PollInterval:      10 * time.Millisecond,
	}
}

// WithSignal returns a copy of the config using a private bootstrap signal.
func (c AsyncConfig) WithSignal(signal *BootstrapSignal) AsyncConfig {
	c.signal = signal
	return c
}

func (c AsyncConfig) bootstrapSignal() *BootstrapSignal {
	if c.signal != nil {
		return c.signal
	}
	return &asyncBootstrap
}

// ExecuteAsync runs the script on a dedicated worker execution context and
// blocks the caller no longer than timeout plus one poll interval. If the
// worker completes in time its status is returned; otherwise the worker is
// detached to finish unobserved and StatusSuccess is returned, since a
// still-running script is not a failure here.
//
// The native result is not carried back across the context boundary in
// this mode. Asynchronous execution serves fire-and-forget operations
// whose return value nobody reads; the status code is the whole answer.
func (s *Script) ExecuteAsync(timeout time.Duration) Status {
	return s.ExecuteAsyncWithConfig(DefaultAsyncConfig(), timeout)
}

// ExecuteAsyncWithConfig is ExecuteAsync with explicit handshake tuning.
func (s *Script) ExecuteAsyncWithConfig(cfg AsyncConfig, timeout time.Duration) Status {
	worker, status := s.beginAsync(cfg)
	if status != StatusSuccess {
		return status
	}
	return worker.Await(timeout, cfg.PollInterval)
}

// BeginAsyncExecution performs the bootstrap, handoff and dispatch but
// skips the poll loop, handing the worker to the caller for a custom
// wait or detach policy. When dispatch fails after the worker was
// spawned, the worker is returned alongside the failure status, already
// shut down, so callers that track workers see a consistent handle.
func (s *Script) BeginAsyncExecution() (*Worker, Status) {
	return s.beginAsync(DefaultAsyncConfig())
}

// BeginAsyncExecutionWithConfig is BeginAsyncExecution with explicit tuning.
func (s *Script) BeginAsyncExecutionWithConfig(cfg AsyncConfig) (*Worker, Status) {
	return s.beginAsync(cfg)
}

// beginAsync walks the coordinator states through dispatch:
// acquire signal, spawn worker, await readiness, hand off the
// context-affine references, post the execute request.
func (s *Script) beginAsync(cfg AsyncConfig) (*Worker, Status) {
	signal := cfg.bootstrapSignal()
	if !signal.acquire(cfg.BootstrapAttempts, cfg.BootstrapDelay) {
		s.log.Warn("bootstrap signal still held after retries")
		return nil, StatusConcurrentAsync
	}

	worker := startWorker(s.source, s.argCount, s.log)
	ready := worker.awaitReady(cfg.StartupTimeout)
	// The signal guards only the handshake window. Release it as soon as
	// readiness is observed or the wait gives up, never across execution.
	signal.Release()
	if !ready {
		s.log.Warn("worker did not signal readiness in time")
		worker.shutdown(StatusWorkerStartFailed)
		return worker, StatusWorkerStartFailed
	}

	if status := s.handOff(worker); status != StatusSuccess {
		worker.shutdown(status)
		return worker, status
	}

	worker.execute()
	return worker, StatusSuccess
}

// handOff moves the engine handle and every argument into the worker's
// execution context. Handles move exactly once; after this the sending
// side's host and argument list are gone.
func (s *Script) handOff(worker *Worker) Status {
	if s.host == nil {
		return StatusHostUnavailable
	}
	if err := worker.setHost(s.host); err != nil {
		s.log.Warn("host handoff failed", zap.Error(err))
		return StatusMarshalFailed
	}
	// One-shot move: the host belongs to the worker context from here on,
	// even if a later argument send fails.
	s.host = nil
	args := s.args
	s.args = nil
	for _, arg := range args {
		if err := worker.setArgument(arg); err != nil {
			s.log.Warn("argument handoff failed", zap.Error(err))
			return StatusMarshalFailed
		}
	}
	return StatusSuccess
}
