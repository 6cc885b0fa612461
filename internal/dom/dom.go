// Package dom is a small read-only view of a document tree.
//
// The search-result heuristics only need to walk elements, read their text
// and attributes and climb to ancestors, so they are written against Node
// rather than a particular HTML parser. Parsed HTML is adapted with
// FromHTML/FromSelection; tests build trees by hand with E and T.
package dom

import "strings"

// Node is one element, text or document node.
type Node interface {
	// Tag returns the lowercase element name, or "" for text and document nodes.
	Tag() string
	// Attr returns the value of an attribute on an element.
	Attr(key string) (string, bool)
	// Text returns the concatenated text of the node and all its descendants.
	Text() string
	// Parent returns the enclosing node, or nil at the root.
	Parent() Node
	// Children returns element and text children in document order.
	Children() []Node
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// FindAll returns the descendants of n (n itself excluded) whose tag equals
// tag, in document order. A limit above zero caps the number of matches.
func FindAll(n Node, tag string, limit int) []Node {
	if n == nil {
		return nil
	}
	tag = strings.ToLower(tag)

	var found []Node
	var visit func(Node) bool
	visit = func(c Node) bool {
		if limit > 0 && len(found) >= limit {
			return false
		}
		if c.Tag() == tag {
			found = append(found, c)
		}
		for _, gc := range c.Children() {
			if !visit(gc) {
				return false
			}
		}
		return true
	}
	for _, c := range n.Children() {
		if !visit(c) {
			break
		}
	}
	return found
}

// Ancestors returns the parent chain of n, nearest first.
func Ancestors(n Node) []Node {
	var chain []Node
	if n == nil {
		return nil
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	return chain
}
