// Package textutil normalizes the free text extracted from product pages.
package textutil

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// SentenceSplitter splits text into sentences. The prose backend is the
// default; tests may substitute a simpler one.
type SentenceSplitter interface {
	Split(text string) []string
}

type proseSplitter struct{}

func (proseSplitter) Split(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return []string{text}
	}
	sentences := doc.Sentences()
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, s.Text)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// NewSentenceSplitter returns the prose-backed sentence splitter.
func NewSentenceSplitter() SentenceSplitter {
	return proseSplitter{}
}

// Ordered table of literal substitutions for code points the site's markup
// leaks into extracted text.
var replacements = []struct {
	old string
	new string
}{
	{"­", ""},                          // soft hyphen
	{" ", " "},                         // non-breaking space
	{"≤", "less than or equal to "},    // ≤
	{"≥", "greater than or equal to "}, // ≥
	{"±", "plus/minus "},               // ±
	{"–", "-"},                         // en dash
}

var (
	temperatureRe = regexp.MustCompile(`(\d+)\x{00b0}C`)
	vendorRefRe   = regexp.MustCompile(` \(([^;]+);\s*ATCC\s([^)]+)\)`)
	vendorCodeRe  = regexp.MustCompile(` \(ATCC\s([^)]+)\)`)
)

// Cleaner normalizes raw extracted text.
type Cleaner struct {
	splitter SentenceSplitter
}

// NewCleaner creates a cleaner with the default sentence splitter.
func NewCleaner() *Cleaner {
	return &Cleaner{splitter: NewSentenceSplitter()}
}

// NewCleanerWithSplitter creates a cleaner with a custom sentence splitter.
func NewCleanerWithSplitter(s SentenceSplitter) *Cleaner {
	return &Cleaner{splitter: s}
}

// Clean normalizes text: literal code-point substitution, sentence re-joining
// with single spaces, temperature spelling, and vendor cross-reference
// stripping. Empty input yields nil.
func (c *Cleaner) Clean(text string) *string {
	if text == "" {
		return nil
	}

	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.old, r.new)
	}

	// Sentence-tokenize and rejoin; this normalizes internal whitespace and
	// the sentence-adjacent spacing that markup extraction mangles.
	// Whitespace-only sentences are dropped, not joined.
	sentences := c.splitter.Split(text)
	normalized := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		fields := strings.Fields(sentence)
		if len(fields) == 0 {
			continue
		}
		normalized = append(normalized, strings.Join(fields, " "))
	}
	text = strings.Join(normalized, " ")

	text = temperatureRe.ReplaceAllString(text, "$1 degrees Celsius")
	text = vendorRefRe.ReplaceAllString(text, "")
	text = vendorCodeRe.ReplaceAllString(text, "")

	return &text
}

// CleanList applies Clean to every non-blank item, dropping blank items
// before cleaning.
func (c *Cleaner) CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		if cleaned := c.Clean(item); cleaned != nil {
			out = append(out, *cleaned)
		}
	}
	return out
}
