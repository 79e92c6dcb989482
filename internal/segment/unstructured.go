package segment

import (
	"strings"

	"cellscraper/internal/textutil"
)

// unstructuredStrategy segments prose with no explicit markers: a sentence
// whose first token looks like an imperative verb opens a new step.
type unstructuredStrategy struct {
	splitter  textutil.SentenceSplitter
	predicate StepPredicate
}

// NewUnstructuredStrategy returns the prose fallback strategy. It always
// matches, so it belongs last in a chain.
func NewUnstructuredStrategy(pred StepPredicate) Strategy {
	return &unstructuredStrategy{
		splitter:  textutil.NewSentenceSplitter(),
		predicate: pred,
	}
}

func (*unstructuredStrategy) Name() string { return "unstructured" }

func (u *unstructuredStrategy) Parse(text string) (Result, bool) {
	stepCounter := 0
	steps := make(map[int]string)
	var description []string
	var current []string

	flush := func() {
		if stepCounter > 0 {
			steps[stepCounter] = strings.Join(current, " ")
			current = nil
		}
	}

	for _, line := range u.splitter.Split(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case u.predicate.IsStepInitial(line):
			flush()
			stepCounter++
			current = append(current, line)

		case stepCounter < 1 || strings.Contains(line, ": "):
			// Before any step, or a "label: value" line, this is narrative.
			description = append(description, line)

		default:
			current = append(current, line)
		}
	}
	if stepCounter > 0 && len(current) > 0 {
		steps[stepCounter] = strings.Join(current, " ")
	}

	if len(steps) == 0 {
		steps = nil
	}
	return Result{
		Description: strings.Join(description, " "),
		Steps:       steps,
	}, true
}
