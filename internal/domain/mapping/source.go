package mapping

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// ---------------------------------------------------------------------------
// Source shapes
//
// Exactly one source implementation exists per raw-record shape: structured
// documents (JSON), markup (XML) and internal models. The path resolver and
// the coercion layer are shape-agnostic; a source only knows how to step
// into a node, enumerate list elements, invoke an accessor (model shape
// only) and turn a terminal node into a scalar.
// ---------------------------------------------------------------------------

// ErrInvokeUnsupported is returned when a "()" path segment is used
// against a source shape without accessors
var ErrInvokeUnsupported = errors.New("mapping: accessor segments are only valid on model sources")

// Source abstracts one raw-record shape for path resolution
type Source interface {
	// Root returns the root node of the record
	Root() any

	// Child returns the named child of node. ok is false when the child
	// does not exist; a missing child resolves to nil, never an error.
	Child(node any, name string) (child any, ok bool)

	// Elements returns the list elements of node, ok=false if node is not
	// a list
	Elements(node any) ([]any, bool)

	// Invoke calls the zero-arg accessor name on node
	Invoke(node any, name string) (any, error)

	// Value converts a terminal node into its scalar value
	Value(node any) any
}

// ---------------------------------------------------------------------------
// DocumentSource (structured documents / JSON)
// ---------------------------------------------------------------------------

// DocumentSource resolves paths against a decoded JSON document
type DocumentSource struct {
	root any
}

// NewDocumentSource wraps an already-decoded document
func NewDocumentSource(root any) *DocumentSource {
	return &DocumentSource{root: root}
}

// NewDocumentSourceFromJSON decodes raw JSON into a document source.
// Numbers decode as json.Number so numeric precision survives coercion.
func NewDocumentSourceFromJSON(data []byte) (*DocumentSource, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("mapping: invalid document: %w", err)
	}
	return &DocumentSource{root: root}, nil
}

// Root returns the document root
func (s *DocumentSource) Root() any { return s.root }

// Child steps into a map field
func (s *DocumentSource) Child(node any, name string) (any, bool) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// Elements returns the slice elements of node
func (s *DocumentSource) Elements(node any) ([]any, bool) {
	list, ok := node.([]any)
	return list, ok
}

// Invoke is not supported on document sources
func (s *DocumentSource) Invoke(node any, name string) (any, error) {
	return nil, ErrInvokeUnsupported
}

// Value returns the node unchanged
func (s *DocumentSource) Value(node any) any { return node }

// ---------------------------------------------------------------------------
// MarkupSource (XML)
// ---------------------------------------------------------------------------

// MarkupNode is one element of a parsed markup document
type MarkupNode struct {
	// Name is the element name (local part)
	Name string
	// Attributes holds the element attributes
	Attributes map[string]string
	// Text is the concatenated character data of the element
	Text string
	// Children are the child elements in document order
	Children []*MarkupNode
}

// childrenNamed returns all child elements with the given name
func (n *MarkupNode) childrenNamed(name string) []*MarkupNode {
	var out []*MarkupNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON renders the node as a JSON object so that TypeString
// coercion of a composite markup value produces readable output
func (n *MarkupNode) MarshalJSON() ([]byte, error) {
	if len(n.Children) == 0 {
		return json.Marshal(strings.TrimSpace(n.Text))
	}
	obj := make(map[string]any, len(n.Children))
	for _, c := range n.Children {
		existing, ok := obj[c.Name]
		if !ok {
			obj[c.Name] = c
			continue
		}
		if list, isList := existing.([]any); isList {
			obj[c.Name] = append(list, c)
		} else {
			obj[c.Name] = []any{existing, c}
		}
	}
	return json.Marshal(obj)
}

// MarkupSource resolves paths against a parsed markup document
type MarkupSource struct {
	root *MarkupNode
}

// NewMarkupSource wraps an already-parsed markup tree
func NewMarkupSource(root *MarkupNode) *MarkupSource {
	return &MarkupSource{root: root}
}

// NewMarkupSourceFromXML parses raw XML into a markup source
func NewMarkupSourceFromXML(data []byte) (*MarkupSource, error) {
	root, err := parseMarkup(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mapping: invalid markup: %w", err)
	}
	return &MarkupSource{root: root}, nil
}

// parseMarkup builds the node tree from an XML stream
func parseMarkup(r io.Reader) (*MarkupNode, error) {
	dec := xml.NewDecoder(r)
	var root *MarkupNode
	var stack []*MarkupNode

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &MarkupNode{
				Name:       t.Name.Local,
				Attributes: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				node.Attributes[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// Root returns the document element
func (s *MarkupSource) Root() any { return s.root }

// Child steps into a child element. Repeated elements with the same name
// form a natural list.
func (s *MarkupSource) Child(node any, name string) (any, bool) {
	n, ok := node.(*MarkupNode)
	if !ok {
		return nil, false
	}
	matches := n.childrenNamed(name)
	switch len(matches) {
	case 0:
		return nil, false
	case 1:
		return matches[0], true
	default:
		out := make([]any, len(matches))
		for i, m := range matches {
			out[i] = m
		}
		return out, true
	}
}

// Elements returns the elements of a repeated-element list. A single node
// is not a list; the resolver wraps it when the path demands one.
func (s *MarkupSource) Elements(node any) ([]any, bool) {
	list, ok := node.([]any)
	return list, ok
}

// Invoke is not supported on markup sources
func (s *MarkupSource) Invoke(node any, name string) (any, error) {
	return nil, ErrInvokeUnsupported
}

// Value coerces a leaf element to its trimmed text; composite elements
// pass through for element-wise or JSON handling downstream
func (s *MarkupSource) Value(node any) any {
	n, ok := node.(*MarkupNode)
	if !ok {
		return node
	}
	if len(n.Children) == 0 {
		return strings.TrimSpace(n.Text)
	}
	return n
}

// ---------------------------------------------------------------------------
// ModelSource (internal models)
// ---------------------------------------------------------------------------

// ModelSource resolves paths against an internal model: struct fields, map
// keys, and zero-arg accessor methods via the "()" segment suffix
type ModelSource struct {
	root any
}

// NewModelSource wraps an internal model value
func NewModelSource(root any) *ModelSource {
	return &ModelSource{root: root}
}

// Root returns the model root
func (s *ModelSource) Root() any { return s.root }

// Child steps into a struct field or map entry
func (s *ModelSource) Child(node any, name string) (any, bool) {
	v := reflect.ValueOf(node)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	default:
		return nil, false
	}
}

// Elements returns the elements of a slice or array model value
func (s *ModelSource) Elements(node any) ([]any, bool) {
	v := reflect.ValueOf(node)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = v.Index(i).Interface()
	}
	return out, true
}

// Invoke calls the zero-arg accessor method name on node. The method may
// return (T) or (T, error).
func (s *ModelSource) Invoke(node any, name string) (any, error) {
	v := reflect.ValueOf(node)
	m := v.MethodByName(name)
	if !m.IsValid() && v.Kind() != reflect.Pointer && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("mapping: no accessor %q on %T", name, node)
	}
	if m.Type().NumIn() != 0 {
		return nil, fmt.Errorf("mapping: accessor %q takes arguments", name)
	}
	results := m.Call(nil)
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if errVal, ok := results[1].Interface().(error); ok && errVal != nil {
			return nil, errVal
		}
		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("mapping: accessor %q has unsupported signature", name)
	}
}

// Value returns the node unchanged
func (s *ModelSource) Value(node any) any { return node }
