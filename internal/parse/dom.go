package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// findNextByClass returns the first element carrying class that follows s in
// document order (descendants included). The product page interleaves
// accordion titles and their content blocks without a shared wrapper, so
// sibling traversal is not enough.
func findNextByClass(s *goquery.Selection, class string) *goquery.Selection {
	empty := s.Slice(0, 0)
	if len(s.Nodes) == 0 {
		return empty
	}
	for n := nextInDocument(s.Nodes[0]); n != nil; n = nextInDocument(n) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			return empty.AddNodes(n)
		}
	}
	return empty
}

// nextInDocument advances one node in document order.
func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
