package dom

import "strings"

// Attrs is a convenience alias for building elements by hand.
type Attrs map[string]string

// Element is an in-memory Node used to build documents without a parser.
type Element struct {
	tag      string
	attrs    Attrs
	text     string
	parent   *Element
	children []*Element
}

// E builds an element and adopts kids as its children.
func E(tag string, attrs Attrs, kids ...*Element) *Element {
	el := &Element{tag: strings.ToLower(tag), attrs: attrs}
	for _, k := range kids {
		if k == nil {
			continue
		}
		k.parent = el
		el.children = append(el.children, k)
	}
	return el
}

// T builds a text node.
func T(text string) *Element {
	return &Element{text: text}
}

// Doc builds a document root around kids.
func Doc(kids ...*Element) *Element {
	return E("", nil, kids...)
}

func (e *Element) Tag() string { return e.tag }

func (e *Element) Attr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

func (e *Element) Text() string {
	if len(e.children) == 0 {
		return e.text
	}
	var b strings.Builder
	b.WriteString(e.text)
	for _, c := range e.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Element) Children() []Node {
	nodes := make([]Node, len(e.children))
	for i, c := range e.children {
		nodes[i] = c
	}
	return nodes
}
