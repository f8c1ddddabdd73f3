package script

// Status is the result code of a script engine operation. It is the only
// failure signal that crosses the package boundary.
type Status int

const (
	// StatusSuccess indicates the operation completed normally. A timed-out
	// asynchronous execution also reports StatusSuccess: the script is still
	// proceeding in the background, which is not a failure.
	StatusSuccess Status = iota

	// StatusHostUnavailable indicates the host engine handle was missing or
	// invalid at execution time.
	StatusHostUnavailable

	// StatusScriptError indicates the anonymous function could not be built
	// or invoked, or the script threw.
	StatusScriptError

	// StatusObsoleteElement indicates an element reference whose element is
	// no longer attached to a document, or is attached to a different
	// document than the one bound to the active engine.
	StatusObsoleteElement

	// StatusConcurrentAsync indicates the worker bootstrap signal was still
	// held by another asynchronous execution after the bounded retries.
	StatusConcurrentAsync

	// StatusWorkerStartFailed indicates the worker execution context failed
	// to start or to signal readiness within the startup timeout.
	StatusWorkerStartFailed

	// StatusMarshalFailed indicates a context-affine reference could not be
	// transferred to the worker.
	StatusMarshalFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusHostUnavailable:
		return "host unavailable"
	case StatusScriptError:
		return "javascript error"
	case StatusObsoleteElement:
		return "obsolete element reference"
	case StatusConcurrentAsync:
		return "concurrent async execution in progress"
	case StatusWorkerStartFailed:
		return "worker start failure"
	case StatusMarshalFailed:
		return "marshal failure"
	}
	return "unknown status"
}
