package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SecorD0/selenium/internal/logging"
)

const bindingPrefix = "__webdriver_script_fn_"

// Host binds a goja runtime to the document it is currently scripting.
// A Host is context-affine: once transferred to a worker execution context
// it must not be touched by the sending side.
type Host struct {
	vm  *goja.Runtime
	doc *goja.Object
	log *logging.Logger
}

// NewHost wraps an engine runtime and its active document.
func NewHost(vm *goja.Runtime, doc *goja.Object, log *logging.Logger) *Host {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Host{vm: vm, doc: doc, log: log}
}

// Runtime returns the underlying engine runtime.
func (h *Host) Runtime() *goja.Runtime { return h.vm }

// Document returns the document handle bound to this engine.
func (h *Host) Document() *goja.Object { return h.doc }

// OwnsDocument reports whether doc is the same document currently bound to
// this engine. Identity, not structural equality.
func (h *Host) OwnsDocument(doc *goja.Object) bool {
	if h.doc == nil || doc == nil {
		return false
	}
	return h.doc.SameAs(doc)
}

// bindAnonymousFunction evaluates the script source under a synthetic
// global binding and returns whatever it evaluated to. The binding name
// embeds a fresh UUID so concurrent sessions and nested synthetic
// invocations cannot collide. The binding is removed before returning.
func (h *Host) bindAnonymousFunction(source string) (goja.Value, error) {
	name := bindingPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	var code strings.Builder
	code.WriteString("globalThis.")
	code.WriteString(name)
	code.WriteString(" = ")
	code.WriteString(source)

	if _, err := h.vm.RunString(code.String()); err != nil {
		return nil, fmt.Errorf("anonymous function evaluation: %w", err)
	}

	global := h.vm.GlobalObject()
	fn := global.Get(name)
	if err := global.Delete(name); err != nil {
		h.log.Warn("failed to remove script binding", zap.String("binding", name))
	}
	if fn == nil {
		return nil, errors.New("script binding produced no value")
	}
	return fn, nil
}

// invoke applies the host dispatch convention to a packed call frame: the
// final slot is the receiver, the preceding slots hold the callee arguments
// in reverse order. Argument packed at slot i is delivered to the callee at
// position len(frame)-2-i.
func (h *Host) invoke(call goja.Callable, frame []goja.Value) (goja.Value, error) {
	if len(frame) == 0 {
		return nil, errors.New("call frame missing receiver slot")
	}
	receiver := frame[len(frame)-1]
	args := make([]goja.Value, 0, len(frame)-1)
	for i := len(frame) - 2; i >= 0; i-- {
		args = append(args, frame[i])
	}
	return call(receiver, args...)
}
