package textutil

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NormalizeMarkup rewrites superscript spans to a ^-prefixed inline token and
// subscript spans to a _-prefixed inline token, removing the tag wrapper.
// Must run before any text extraction that would otherwise lose the
// superscript/subscript semantics (CO_2, 10^6, and the like).
func NormalizeMarkup(doc *goquery.Document) {
	unwrapWithPrefix(doc, "sup", "^")
	unwrapWithPrefix(doc, "sub", "_")
}

func unwrapWithPrefix(doc *goquery.Document, tag, prefix string) {
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(&html.Node{
			Type: html.TextNode,
			Data: prefix + s.Text(),
		})
	})
}
