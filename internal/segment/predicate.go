package segment

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// StepPredicate decides whether a sentence opens a new procedure step. The
// tagging backend sits behind this interface so it can be swapped without
// touching the segmenter's control flow.
type StepPredicate interface {
	IsStepInitial(sentence string) bool
}

// Verbs that open a step regardless of how the tagger labels them. The
// tagger routinely mistags imperative sentence openers as nouns.
var actionVerbs = map[string]struct{}{
	"thaw":   {},
	"remove": {},
	"allow":  {},
	"add":    {},
}

type verbPredicate struct{}

// NewVerbPredicate returns the prose-backed predicate: a sentence is
// step-initial when its first token is tagged as a base-form verb or is on
// the action-verb allowlist.
func NewVerbPredicate() StepPredicate {
	return verbPredicate{}
}

func (verbPredicate) IsStepInitial(sentence string) bool {
	doc, err := prose.NewDocument(sentence,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return allowlisted(firstField(sentence))
	}

	tokens := doc.Tokens()
	if len(tokens) == 0 {
		return false
	}
	first := tokens[0]
	if first.Tag == "VB" {
		return true
	}
	return allowlisted(first.Text)
}

func allowlisted(word string) bool {
	_, ok := actionVerbs[strings.ToLower(word)]
	return ok
}

func firstField(sentence string) string {
	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z')
	})
}
