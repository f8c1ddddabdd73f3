package elements

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SecorD0/selenium/internal/dom"
	"github.com/SecorD0/selenium/internal/logging"
	"github.com/SecorD0/selenium/internal/script"
)

// Element is one tracked element: an identifier, the borrowed native
// handle, and the document that minted it. Attachment is never stored; it
// is recomputed against the live tree on every query.
type Element struct {
	id     string
	handle *goja.Object
	doc    *dom.Document
}

// ID returns the opaque element identifier.
func (e *Element) ID() string { return e.id }

// Handle returns the native element handle, borrowed from the registry.
func (e *Element) Handle() *goja.Object { return e.handle }

// Attached reports whether the element is still in its document's tree.
func (e *Element) Attached() bool { return e.doc.Contains(e.handle) }

// OwnerDocument returns the handle of the document that owns this element.
func (e *Element) OwnerDocument() *goja.Object { return e.doc.Object() }

// Registry maps element identifiers to live elements for one session
// document. Read-mostly and safe for concurrent use; callers only query
// element state through it, never mutate it.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Element
	byHandle map[*goja.Object]string

	doc *dom.Document
	log *logging.Logger
}

// NewRegistry creates a registry bound to the session's document.
func NewRegistry(doc *dom.Document, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Registry{
		byID:     make(map[string]*Element),
		byHandle: make(map[*goja.Object]string),
		doc:      doc,
		log:      log.Named("elements"),
	}
}

// Register mints an identifier for the handle, reusing the existing one if
// the handle has been seen before.
func (r *Registry) Register(handle *goja.Object) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byHandle[handle]; ok {
		return id
	}
	id := uuid.NewString()
	r.byID[id] = &Element{id: id, handle: handle, doc: r.doc}
	r.byHandle[handle] = id
	r.log.Debug("registered element", zap.String("id", id))
	return id
}

// Lookup resolves an identifier to its element.
func (r *Registry) Lookup(id string) (script.ResolvedElement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	element, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return element, true
}

// Get is Lookup with the concrete element type, for callers inside the
// driver that need the identifier back.
func (r *Registry) Get(id string) (*Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	element, ok := r.byID[id]
	return element, ok
}

// Len returns the number of tracked elements.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
