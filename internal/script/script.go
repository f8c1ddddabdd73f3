package script

import (
	"errors"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/SecorD0/selenium/internal/logging"
)

// ErrTooManyArguments is returned when AddArgument is called more times
// than the declared argument count. The argument list never grows past its
// declared size; exceeding it is a programming error in the caller.
var ErrTooManyArguments = errors.New("script: argument count exceeds declared size")

// Script is a single invocation against the host engine: immutable source
// text, a fixed argument count and an argument list filled strictly in
// order. A Script whose marshaling failed partway must be discarded, not
// reused.
type Script struct {
	host     *Host
	source   string
	argCount int
	args     []goja.Value
	result   Value
	log      *logging.Logger
}

// New constructs an invocation for source with room for argCount arguments.
func New(host *Host, source string, argCount int) *Script {
	var log *logging.Logger
	if host != nil {
		log = host.log
	} else {
		log = logging.NewDefault()
	}
	return &Script{
		host:     host,
		source:   source,
		argCount: argCount,
		args:     make([]goja.Value, 0, argCount),
		log:      log,
	}
}

// Source returns the script source text.
func (s *Script) Source() string { return s.source }

// ArgumentCount returns the declared argument count.
func (s *Script) ArgumentCount() int { return s.argCount }

// AddArgument appends the next positional argument. It fails fast once the
// declared count is reached rather than silently growing the list.
func (s *Script) AddArgument(v goja.Value) error {
	if len(s.args) >= s.argCount {
		return ErrTooManyArguments
	}
	s.args = append(s.args, v)
	return nil
}

// AddStringArgument wraps a string as a native literal argument.
func (s *Script) AddStringArgument(v string) error {
	return s.addNative(v)
}

// AddIntArgument wraps an integer as a native literal argument.
func (s *Script) AddIntArgument(v int64) error {
	return s.addNative(v)
}

// AddDoubleArgument wraps a double as a native literal argument.
func (s *Script) AddDoubleArgument(v float64) error {
	return s.addNative(v)
}

// AddBoolArgument wraps a boolean as a native literal argument.
func (s *Script) AddBoolArgument(v bool) error {
	return s.addNative(v)
}

// AddNullArgument appends the native null literal.
func (s *Script) AddNullArgument() error {
	return s.AddArgument(goja.Null())
}

// AddElementArgument appends a live element handle. The handle is borrowed
// from the registry; the invocation does not own it.
func (s *Script) AddElementArgument(handle *goja.Object) error {
	return s.AddArgument(handle)
}

func (s *Script) addNative(v interface{}) error {
	if s.host == nil || s.host.vm == nil {
		return errors.New("script: no host engine to wrap argument")
	}
	return s.AddArgument(s.host.vm.ToValue(v))
}

// Result returns the classified invocation result. Valid after Execute.
func (s *Script) Result() Value { return s.result }

// Execute evaluates the source as an anonymous function and invokes it once
// with the accumulated arguments, blocking for the full host evaluation.
//
// The call frame follows the host dispatch convention: the argument added
// at position i is delivered to the callee at position argCount-1-i, and one
// implicit receiver slot (the global object) follows all arguments.
func (s *Script) Execute() Status {
	if s.host == nil || s.host.vm == nil {
		s.log.Warn("script engine host is missing")
		return StatusHostUnavailable
	}

	fn, err := s.host.bindAnonymousFunction(s.source)
	if err != nil {
		s.log.Warn("cannot create anonymous function", zap.Error(err))
		return StatusScriptError
	}

	call, ok := goja.AssertFunction(fn)
	if !ok {
		// The source evaluated to something non-invokable. There is no
		// return value to care about; this is not an error.
		s.log.Debug("script evaluated to a non-invokable value")
		s.result = newValue(s.host, nil)
		return StatusSuccess
	}

	frame := s.buildCallFrame(s.host.vm.GlobalObject())
	res, err := s.host.invoke(call, frame)
	if err != nil {
		desc := describeThrown(err)
		s.log.Info("script invocation failed", zap.String("exception", desc))
		s.result = newValue(s.host, s.host.vm.ToValue(desc))
		return StatusScriptError
	}

	s.result = newValue(s.host, res)
	return StatusSuccess
}

// buildCallFrame packs the argument list for host dispatch: arguments in
// reverse order, receiver in the final slot. For N arguments the frame has
// N+1 slots and frame[N-1-i] holds the argument added at position i.
func (s *Script) buildCallFrame(receiver goja.Value) []goja.Value {
	n := len(s.args)
	frame := make([]goja.Value, n+1)
	for i, arg := range s.args {
		frame[n-1-i] = arg
	}
	frame[n] = receiver
	return frame
}

// describeThrown renders a thrown host value or engine error as the string
// payload used for failed invocations.
func describeThrown(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if v := ex.Value(); v != nil {
			return v.String()
		}
	}
	return err.Error()
}

// Result classification, delegating to the value classifier.

func (s *Script) ResultIsString() bool            { return s.result.IsString() }
func (s *Script) ResultIsInteger() bool           { return s.result.IsInteger() }
func (s *Script) ResultIsDouble() bool            { return s.result.IsDouble() }
func (s *Script) ResultIsBoolean() bool           { return s.result.IsBoolean() }
func (s *Script) ResultIsEmpty() bool             { return s.result.IsEmpty() }
func (s *Script) ResultIsObjectHandle() bool      { return s.result.IsObjectHandle() }
func (s *Script) ResultIsElement() bool           { return s.result.IsElement() }
func (s *Script) ResultIsElementCollection() bool { return s.result.IsElementCollection() }
func (s *Script) ResultIsArray() bool             { return s.result.IsArray() }
func (s *Script) ResultIsObject() bool            { return s.result.IsObject() }
