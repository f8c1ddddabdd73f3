package dom

import (
	"errors"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"golang.org/x/net/html"

	"github.com/SecorD0/selenium/internal/logging"
)

// ErrNoSuchElement is returned when an XPath query matches nothing.
var ErrNoSuchElement = errors.New("dom: no such element")

// DOM node type numbering.
const (
	elementNodeType  = 1
	documentNodeType = 9
)

// Document owns a parsed page and its native engine projection. One
// Document is bound to one engine runtime; its object handle is the
// document identity the script engine validates element references against.
type Document struct {
	vm  *goja.Runtime
	log *logging.Logger

	obj  *goja.Object
	root *html.Node

	mu      sync.RWMutex
	handles map[*goja.Object]*html.Node
	objects map[*html.Node]*goja.Object
}

// Parse parses page HTML and installs the resulting document as the
// engine's global "document".
func Parse(vm *goja.Runtime, pageHTML string, log *logging.Logger) (*Document, error) {
	if log == nil {
		log = logging.NewDefault()
	}
	root, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	d := &Document{
		vm:      vm,
		log:     log,
		root:    root,
		handles: make(map[*goja.Object]*html.Node),
		objects: make(map[*html.Node]*goja.Object),
	}
	d.buildDocumentObject()

	if err := vm.Set("document", d.obj); err != nil {
		return nil, err
	}
	return d, nil
}

// Object returns the native document handle.
func (d *Document) Object() *goja.Object { return d.obj }

// Runtime returns the engine runtime this document is bound to.
func (d *Document) Runtime() *goja.Runtime { return d.vm }

// Find locates the first element matching the XPath expression and returns
// its native handle.
func (d *Document) Find(xpath string) (*goja.Object, error) {
	node, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return nil, err
	}
	if node == nil || node.Type != html.ElementNode {
		return nil, ErrNoSuchElement
	}
	return d.HandleFor(node), nil
}

// FindAll locates every element matching the XPath expression.
func (d *Document) FindAll(xpath string) ([]*goja.Object, error) {
	nodes, err := htmlquery.QueryAll(d.root, xpath)
	if err != nil {
		return nil, err
	}
	handles := make([]*goja.Object, 0, len(nodes))
	for _, node := range nodes {
		if node.Type != html.ElementNode {
			continue
		}
		handles = append(handles, d.HandleFor(node))
	}
	return handles, nil
}

// HandleFor wraps node as a native element handle, reusing the wrapper on
// repeated calls so handle identity is stable.
func (d *Document) HandleFor(node *html.Node) *goja.Object {
	d.mu.Lock()
	defer d.mu.Unlock()

	if obj, ok := d.objects[node]; ok {
		return obj
	}
	obj := d.buildElementObject(node)
	d.objects[node] = obj
	d.handles[obj] = node
	return obj
}

// NodeFor returns the backing parse node for a handle minted by this
// document, or nil for a foreign handle.
func (d *Document) NodeFor(handle *goja.Object) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handles[handle]
}

// Contains reports whether the handle's element is still attached to this
// document. Always a live walk of the tree, never cached.
func (d *Document) Contains(handle *goja.Object) bool {
	d.mu.RLock()
	node, ok := d.handles[handle]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	for n := node; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// Remove detaches the handle's element from the tree. The wrapper stays
// valid; subsequent Contains calls report it detached.
func (d *Document) Remove(handle *goja.Object) bool {
	d.mu.RLock()
	node, ok := d.handles[handle]
	d.mu.RUnlock()
	if !ok || node.Parent == nil {
		return false
	}
	node.Parent.RemoveChild(node)
	return true
}

func (d *Document) buildDocumentObject() {
	obj := d.vm.NewObject()
	d.obj = obj
	d.setOrWarn(obj, "nodeType", documentNodeType)
	d.setOrWarn(obj, "nodeName", "#document")

	if htmlNode := firstElementChild(d.root); htmlNode != nil {
		d.setOrWarn(obj, "documentElement", d.HandleFor(htmlNode))
	}
}

func (d *Document) buildElementObject(node *html.Node) *goja.Object {
	obj := d.vm.NewObject()
	d.setOrWarn(obj, "nodeType", elementNodeType)
	d.setOrWarn(obj, "tagName", strings.ToUpper(node.Data))
	d.setOrWarn(obj, "nodeName", strings.ToUpper(node.Data))
	d.setOrWarn(obj, "ownerDocument", d.obj)

	// textContent tracks the live tree rather than a snapshot.
	getText := d.vm.ToValue(func() string {
		return htmlquery.InnerText(node)
	})
	if err := obj.DefineAccessorProperty("textContent", getText, goja.Undefined(), goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		d.log.Warn("failed to define textContent accessor")
	}

	d.setOrWarn(obj, "getAttribute", func(name string) goja.Value {
		for _, attr := range node.Attr {
			if strings.EqualFold(attr.Key, name) {
				return d.vm.ToValue(attr.Val)
			}
		}
		return goja.Null()
	})
	d.setOrWarn(obj, "id", htmlquery.SelectAttr(node, "id"))
	return obj
}

func (d *Document) setOrWarn(obj *goja.Object, key string, v interface{}) {
	if err := obj.Set(key, v); err != nil {
		d.log.Warn("failed to set document property: " + key)
	}
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
