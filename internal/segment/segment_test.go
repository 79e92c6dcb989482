package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredStrategyBasic(t *testing.T) {
	s := NewStructuredStrategy()

	text := "Handling Procedure for Frozen Cells 1. Thaw cells. 2. Add medium. CATALOG DESCRIPTION ignored text"
	res, ok := s.Parse(text)
	require.True(t, ok)

	assert.Equal(t, map[int]string{1: "Thaw cells.", 2: "Add medium."}, res.Steps)
	assert.Empty(t, res.Description)
	assert.Empty(t, res.SubcultureNote)
}

func TestStructuredStrategyDashBullets(t *testing.T) {
	s := NewStructuredStrategy()

	text := "handling procedure for frozen cells Work in a biosafety cabinet. - Thaw the vial rapidly. - Transfer contents to a tube."
	res, ok := s.Parse(text)
	require.True(t, ok)

	assert.Equal(t, "Work in a biosafety cabinet.", res.Description)
	assert.Equal(t, map[int]string{
		1: "Thaw the vial rapidly.",
		2: "Transfer contents to a tube.",
	}, res.Steps)
}

func TestStructuredStrategyDecimalReattach(t *testing.T) {
	s := NewStructuredStrategy()

	// "1.5 mL" is split on the period; the "5 mL" fragment must rejoin the
	// previous fragment instead of opening a step.
	text := "Handling Procedure for Frozen Cells 1. Add 1.5 mL of medium. 2. Incubate."
	res, ok := s.Parse(text)
	require.True(t, ok)

	require.Len(t, res.Steps, 2)
	assert.Equal(t, "Add 1.5 mL of medium.", res.Steps[1])
	assert.Equal(t, "Incubate.", res.Steps[2])
}

func TestStructuredStrategySubcultureNote(t *testing.T) {
	s := NewStructuredStrategy()

	text := "Handling Procedure for Frozen Cells 1. Thaw the vial. 2. Plate the cells. Subculture Procedure follows standard passaging. Split at 80% confluence."
	res, ok := s.Parse(text)
	require.True(t, ok)

	assert.Equal(t, map[int]string{1: "Thaw the vial.", 2: "Plate the cells."}, res.Steps)
	assert.Equal(t, "follows standard passaging. Split at 80% confluence.", res.SubcultureNote)
}

func TestStructuredStrategyHeaderless(t *testing.T) {
	s := NewStructuredStrategy()

	// Step markers alone are enough; the header is not required.
	res, ok := s.Parse("1. Thaw cells. 2. Add medium. CATALOG DESCRIPTION ignored text")
	require.True(t, ok)

	assert.Equal(t, map[int]string{1: "Thaw cells.", 2: "Add medium."}, res.Steps)
	assert.Empty(t, res.Description)
}

func TestHeaderGatedSkipsHeaderlessText(t *testing.T) {
	s := HeaderGated(NewStructuredStrategy())

	_, ok := s.Parse("1. Thaw cells. 2. Add medium.")
	assert.False(t, ok)

	res, ok := s.Parse("Handling Procedure for Frozen Cells 1. Thaw cells. 2. Add medium.")
	require.True(t, ok)
	assert.Equal(t, map[int]string{1: "Thaw cells.", 2: "Add medium."}, res.Steps)
}

func TestStructuredStrategyHeaderButNoSteps(t *testing.T) {
	s := NewStructuredStrategy()
	_, ok := s.Parse("Handling Procedure for Frozen Cells just narrative text with no markers")
	assert.False(t, ok, "zero steps must fall through to the next strategy")
}

// fixedPredicate marks sentences beginning with any allowlisted word.
type fixedPredicate struct{ words map[string]bool }

func (p fixedPredicate) IsStepInitial(sentence string) bool {
	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return false
	}
	return p.words[strings.ToLower(fields[0])]
}

func TestUnstructuredStrategy(t *testing.T) {
	pred := fixedPredicate{words: map[string]bool{"thaw": true, "add": true, "centrifuge": true}}
	s := NewUnstructuredStrategy(pred)

	text := "This vial contains frozen cells. Volume: 1 mL. Thaw the vial in a water bath. Swirl gently. Add 9 mL of medium. Centrifuge at 125 x g."
	res, ok := s.Parse(text)
	require.True(t, ok)

	assert.Equal(t, "This vial contains frozen cells. Volume: 1 mL.", res.Description)
	assert.Equal(t, map[int]string{
		1: "Thaw the vial in a water bath. Swirl gently.",
		2: "Add 9 mL of medium.",
		3: "Centrifuge at 125 x g.",
	}, res.Steps)
}

func TestUnstructuredStrategyColonLinesJoinDescription(t *testing.T) {
	pred := fixedPredicate{words: map[string]bool{"thaw": true}}
	s := NewUnstructuredStrategy(pred)

	text := "Thaw the vial. Subcultivation ratio: 1:4. Swirl gently."
	res, ok := s.Parse(text)
	require.True(t, ok)

	// The "label: value" line goes to the description even mid-procedure
	assert.Equal(t, "Subcultivation ratio: 1:4.", res.Description)
	assert.Equal(t, map[int]string{1: "Thaw the vial. Swirl gently."}, res.Steps)
}

func TestUnstructuredStrategyNoSteps(t *testing.T) {
	pred := fixedPredicate{words: map[string]bool{}}
	s := NewUnstructuredStrategy(pred)

	res, ok := s.Parse("Just a plain description. Nothing actionable here.")
	require.True(t, ok)
	assert.Nil(t, res.Steps)
	assert.Equal(t, "Just a plain description. Nothing actionable here.", res.Description)
}

func TestVerbPredicateAllowlist(t *testing.T) {
	pred := NewVerbPredicate()

	// Allowlisted verbs open steps regardless of how the tagger labels them
	assert.True(t, pred.IsStepInitial("Add 10mL of medium."))
	assert.True(t, pred.IsStepInitial("Thaw the vial rapidly."))
	assert.True(t, pred.IsStepInitial("Remove the supernatant."))
	assert.True(t, pred.IsStepInitial("Allow the cells to settle."))

	assert.False(t, pred.IsStepInitial("The cells grow as a monolayer."))
}

func TestChainFallsThroughStructured(t *testing.T) {
	chain := NewChain(
		HeaderGated(NewStructuredStrategy()),
		NewUnstructuredStrategy(fixedPredicate{words: map[string]bool{"thaw": true}}),
	)

	// Header present but no markers: the unstructured strategy must run on
	// the same raw text.
	text := "Handling Procedure for Frozen Cells are shipped on dry ice. Thaw the vial quickly."
	res := chain.Parse(text)
	require.NotNil(t, res.Steps)
	assert.Equal(t, "Thaw the vial quickly.", res.Steps[1])
}

func TestStepNumberingContiguous(t *testing.T) {
	strategies := []Strategy{
		NewStructuredStrategy(),
		NewUnstructuredStrategy(fixedPredicate{words: map[string]bool{"thaw": true, "add": true, "remove": true}}),
	}
	inputs := []string{
		"Handling Procedure for Frozen Cells 1. One. 2. Two. 3. Three.",
		"Thaw it. Add it. Remove it.",
	}

	for i, input := range inputs {
		var res Result
		for _, s := range strategies {
			if r, ok := s.Parse(input); ok {
				res = r
				break
			}
		}
		require.NotEmpty(t, res.Steps, "input %d", i)
		for n := 1; n <= len(res.Steps); n++ {
			_, ok := res.Steps[n]
			assert.True(t, ok, "input %d: step %d missing from 1..%d", i, n, len(res.Steps))
		}
	}
}
