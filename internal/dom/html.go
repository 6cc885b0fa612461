package dom

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type htmlNode struct {
	n *html.Node
}

// FromHTML adapts a parsed x/net/html node. It returns nil for a nil node.
func FromHTML(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return htmlNode{n: n}
}

// FromSelection adapts the first node of a goquery selection.
func FromSelection(s *goquery.Selection) Node {
	if s == nil || len(s.Nodes) == 0 {
		return nil
	}
	return FromHTML(s.Nodes[0])
}

// Parse reads an HTML document and returns its root node.
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return FromSelection(doc.Selection), nil
}

func (h htmlNode) Tag() string {
	if h.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(h.n.Data)
}

func (h htmlNode) Attr(key string) (string, bool) {
	for _, a := range h.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (h htmlNode) Text() string {
	var b strings.Builder
	collectText(h.n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func (h htmlNode) Parent() Node {
	if h.n.Parent == nil {
		return nil
	}
	return htmlNode{n: h.n.Parent}
}

func (h htmlNode) Children() []Node {
	var nodes []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode, html.TextNode:
			nodes = append(nodes, htmlNode{n: c})
		}
	}
	return nodes
}
