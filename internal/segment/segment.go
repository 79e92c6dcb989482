// Package segment splits free-text procedure descriptions into ordered,
// numbered steps. Product pages describe the same kind of procedure in three
// layouts: explicit ordered-list markup (handled by the DOM extractors),
// structured paragraphs with embedded numeric or dash markers, and
// unstructured prose where step boundaries are verb-initial sentences. The
// paragraph layouts are handled here as an ordered chain of strategies.
package segment

import (
	"strings"
	"unicode"
)

// Result is the outcome of segmenting one procedure region.
type Result struct {
	Description    string
	Steps          map[int]string
	SubcultureNote string
}

// Strategy attempts to segment a block of text. It reports false when the
// text does not match the layout it understands, letting the chain fall
// through to the next strategy.
type Strategy interface {
	Name() string
	Parse(text string) (Result, bool)
}

// Chain tries strategies in order and returns the first match. When nothing
// matches, the whole text becomes the description.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from the given strategies, tried in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain is the production fallback order: structured paragraph first
// (only when the frozen-cells header is present), unstructured prose as the
// catch-all.
func DefaultChain() *Chain {
	return NewChain(
		HeaderGated(NewStructuredStrategy()),
		NewUnstructuredStrategy(NewVerbPredicate()),
	)
}

// Parse runs the chain over text.
func (c *Chain) Parse(text string) Result {
	for _, s := range c.strategies {
		if res, ok := s.Parse(text); ok {
			return res
		}
	}
	return Result{Description: text}
}

const (
	frozenHeaderMarker = "handling procedure for frozen cells"
	catalogMarker      = "CATALOG DESCRIPTION"
	subcultureMarker   = "subculture procedure"
)

// headerGated runs its inner strategy only when the text carries the
// frozen-cells header. The handling-procedure chain uses it so header-less
// prose goes straight to the unstructured parse; subculturing regions run the
// structured strategy without the gate.
type headerGated struct{ inner Strategy }

// HeaderGated wraps a strategy behind the frozen-cells header check.
func HeaderGated(s Strategy) Strategy {
	return headerGated{inner: s}
}

func (g headerGated) Name() string { return g.inner.Name() }

func (g headerGated) Parse(text string) (Result, bool) {
	if !strings.Contains(strings.ToLower(text), frozenHeaderMarker) {
		return Result{}, false
	}
	return g.inner.Parse(text)
}

// structuredStrategy parses paragraphs that embed numeric or dash step
// markers in prose. It matches whenever it produces at least one step.
type structuredStrategy struct{}

// NewStructuredStrategy returns the structured-paragraph strategy.
func NewStructuredStrategy() Strategy {
	return structuredStrategy{}
}

func (structuredStrategy) Name() string { return "structured" }

func (structuredStrategy) Parse(text string) (Result, bool) {
	text = stripInsensitive(text, frozenHeaderMarker)

	// Text after the catalog marker belongs to the product blurb, not the
	// procedure.
	if idx := strings.Index(text, catalogMarker); idx >= 0 {
		text = text[:idx]
	}

	stepCounter := 0
	steps := make(map[int]string)
	var description []string
	var subculture []string
	var current []string

	flush := func() {
		if stepCounter > 0 {
			steps[stepCounter] = strings.Join(current, " ")
			current = nil
		}
	}

	for _, line := range strings.Split(text, ".") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case isAllDigits(line):
			// Bare step number: close the previous step, open the next.
			flush()
			stepCounter++

		case line[0] == '-':
			// Dash bullet: also a step boundary, carrying its own text.
			flush()
			stepCounter++
			current = append(current, strings.TrimSpace(line[1:])+".")

		case len(steps) == 0 && stepCounter < 1:
			description = append(description, line+".")

		case unicode.IsDigit(rune(line[0])):
			// Period split a decimal fraction ("1.5 mL"); reattach to the
			// previous fragment instead of opening a step.
			if len(current) > 0 {
				current[len(current)-1] += line + "."
			}

		case strings.Contains(strings.ToLower(line), subcultureMarker):
			line = stripInsensitive(line, subcultureMarker)
			subculture = append(subculture, strings.TrimSpace(line)+".")

		case len(subculture) > 0:
			subculture = append(subculture, line+".")

		default:
			current = append(current, line+".")
		}
	}
	// A trailing bare marker with no text is not a step.
	if stepCounter > 0 && len(current) > 0 {
		steps[stepCounter] = strings.Join(current, " ")
	}

	if len(steps) == 0 {
		// No step markers found; let the chain fall through to the
		// unstructured parse.
		return Result{}, false
	}

	return Result{
		Description:    strings.Join(description, " "),
		Steps:          steps,
		SubcultureNote: strings.Join(subculture, " "),
	}, true
}

// stripInsensitive removes every case-insensitive occurrence of marker.
func stripInsensitive(text, marker string) string {
	lower := strings.ToLower(text)
	marker = strings.ToLower(marker)
	var b strings.Builder
	for {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		text = text[idx+len(marker):]
		lower = lower[idx+len(marker):]
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
