package client

import (
	"strings"

	"golang.org/x/net/html"
)

// Small helpers over x/net/html for the stores that only serve
// server-rendered markup.

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAllElements(n *html.Node, match func(*html.Node) bool, out *[]*html.Node) {
	if n.Type == html.ElementNode && match(n) {
		*out = append(*out, n)
		// Matching containers do not nest in the markup we scrape.
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findAllElements(c, match, out)
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func elementByID(n *html.Node, id string) *html.Node {
	return findElement(n, func(e *html.Node) bool { return attrVal(e, "id") == id })
}

func elementsByClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	findAllElements(n, func(e *html.Node) bool { return hasClass(e, class) }, &out)
	return out
}

func elementByClass(n *html.Node, classes ...string) *html.Node {
	return findElement(n, func(e *html.Node) bool {
		for _, class := range classes {
			if hasClass(e, class) {
				return true
			}
		}
		return false
	})
}

func elementByTag(n *html.Node, tag string) *html.Node {
	return findElement(n, func(e *html.Node) bool { return e.Data == tag })
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
