package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOption(id string, row int) *Option {
	return &Option{ID: id, Text: id, SourceRow: row}
}

func makeQuestion(id string, row, numOptions int) *Question {
	q := &Question{ID: id, Text: id, SourceRow: row, Exclusive: true}
	for i := 0; i < numOptions; i++ {
		q.Options = append(q.Options, makeOption(fmt.Sprintf("%s_o%d", id, i+1), row+1+i))
	}
	return q
}

// TestLinkSetsParentAndLookups verifies that Link wires parent pointers,
// containing blocks and the ID indexes.
func TestLinkSetsParentAndLookups(t *testing.T) {
	q1 := makeQuestion("q1", 1, 2)
	q2 := makeQuestion("q2", 4, 2)
	sub := &Block{ID: "b1_1", Index: 1, Questions: []*Question{q2}}
	top := &Block{ID: "b1", Index: 1, Questions: []*Question{q1}, SubBlocks: []*Block{sub}}
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{top}}

	require.NoError(t, s.Link())

	assert.Same(t, top, sub.Parent)
	assert.Nil(t, top.Parent)
	assert.Same(t, top, q1.Block)
	assert.Same(t, sub, q2.Block)
	assert.Same(t, top, sub.FarthestContainingBlock())

	got, ok := s.QuestionByID("q2")
	require.True(t, ok)
	assert.Same(t, q2, got)
	gotBlock, ok := s.BlockByID("b1_1")
	require.True(t, ok)
	assert.Same(t, sub, gotBlock)
	assert.Len(t, s.Questions, 2)
	assert.Len(t, s.AllBlocks(), 2)
}

func TestLinkRejectsEmptySurvey(t *testing.T) {
	s := &Survey{ID: "s"}
	err := s.Link()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestLinkRejectsDuplicateQuestionID(t *testing.T) {
	top := &Block{ID: "b1", Index: 1, Questions: []*Question{
		makeQuestion("q1", 1, 2),
		makeQuestion("q1", 4, 2),
	}}
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{top}}
	err := s.Link()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestLinkRejectsEmptyBlock(t *testing.T) {
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{{ID: "b1", Index: 1}}}
	err := s.Link()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestLinkRejectsFreetextWithOptions(t *testing.T) {
	q := makeQuestion("q1", 1, 2)
	q.Freetext = true
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{{ID: "b1", Index: 1, Questions: []*Question{q}}}}
	err := s.Link()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

// TestLinkDetectsBranchQuestion verifies that a question with a branch map
// becomes its block's branch question.
func TestLinkDetectsBranchQuestion(t *testing.T) {
	dest := &Block{ID: "b2", Index: 2, Questions: []*Question{makeQuestion("q2", 4, 2)}}
	q := makeQuestion("q1", 1, 2)
	q.BranchMap = map[string]*Block{"q1_o1": dest}
	src := &Block{ID: "b1", Index: 1, Questions: []*Question{q}}
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{src, dest}}

	require.NoError(t, s.Link())
	assert.True(t, q.IsBranchQuestion())
	assert.Same(t, q, src.BranchQ)
	assert.True(t, src.HasBranchQuestion())
	assert.False(t, dest.HasBranchQuestion())

	got, err := q.BranchDestination(q.Options[0])
	require.NoError(t, err)
	assert.Same(t, dest, got)
	_, err = q.BranchDestination(&Option{ID: "nope"})
	assert.Error(t, err)

	dests := src.BranchDestinations()
	require.Len(t, dests, 1)
	assert.Same(t, dest, dests[0])
}

// TestVariantsInAllBlock verifies that questions in an ALL-paradigm block are
// each other's wording variants, and that a standalone question is its own
// only variant.
func TestVariantsInAllBlock(t *testing.T) {
	qa := makeQuestion("qa", 2, 3)
	qb := makeQuestion("qb", 2, 3)
	all := &Block{ID: "b1", Index: 1, Paradigm: BranchAll, Questions: []*Question{qa, qb}}
	lone := makeQuestion("q_lone", 10, 2)
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{
		all,
		{ID: "b2", Index: 2, Questions: []*Question{lone}},
	}}
	require.NoError(t, s.Link())

	assert.ElementsMatch(t, []*Question{qa, qb}, qa.Variants())
	assert.ElementsMatch(t, []*Question{qa, qb}, qb.Variants())
	assert.Equal(t, []*Question{lone}, lone.Variants())
}

// TestEquivalentAnswerVariants verifies that options are aligned across
// wording variants by row offset.
func TestEquivalentAnswerVariants(t *testing.T) {
	qa := makeQuestion("qa", 2, 3)
	qb := makeQuestion("qb", 2, 3)
	all := &Block{ID: "b1", Index: 1, Paradigm: BranchAll, Questions: []*Question{qa, qb}}
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{all}}
	require.NoError(t, s.Link())

	// second option of qa aligns with the second option of qb
	equiv := qa.EquivalentAnswerVariants(qa.Options[1])
	require.Len(t, equiv, 2)
	assert.ElementsMatch(t, []*Option{qa.Options[1], qb.Options[1]}, equiv)
	assert.Equal(t, 2, qa.RowOffset(qa.Options[1]))
}

func TestPartitionTopLevel(t *testing.T) {
	b1 := &Block{ID: "b1", Index: 1, Questions: []*Question{makeQuestion("q1", 1, 2)}}
	b2 := &Block{ID: "b2", Index: 2, Randomizable: true, Questions: []*Question{makeQuestion("q2", 4, 2)}}
	b3 := &Block{ID: "b3", Index: 3, Questions: []*Question{makeQuestion("q3", 7, 2)}}
	s := &Survey{ID: "s", TopLevelBlocks: []*Block{b1, b2, b3}}
	require.NoError(t, s.Link())

	randomizable, fixed := s.PartitionTopLevel()
	assert.Equal(t, []*Block{b2}, randomizable)
	assert.Equal(t, []*Block{b1, b3}, fixed)
}

func TestIsCustom(t *testing.T) {
	assert.True(t, makeQuestion("custom_intro", 1, 0).IsCustom())
	assert.False(t, makeQuestion("q1", 1, 0).IsCustom())
}

func TestBlockSizeAndAllQuestions(t *testing.T) {
	q1 := makeQuestion("q1", 1, 2)
	q2 := makeQuestion("q2", 4, 2)
	sub := &Block{ID: "b1_1", Index: 1, Questions: []*Question{q2}}
	top := &Block{ID: "b1", Index: 1, Questions: []*Question{q1}, SubBlocks: []*Block{sub}}

	assert.Equal(t, 2, top.Size())
	assert.ElementsMatch(t, []*Question{q1, q2}, top.AllQuestions())
}

func TestPathMembership(t *testing.T) {
	b1 := &Block{ID: "b1", Index: 1}
	b2 := &Block{ID: "b2", Index: 2}
	b3 := &Block{ID: "b3", Index: 3}

	p := NewPath(b2, b1)
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Contains(b1))
	assert.False(t, p.Contains(b3))
	assert.True(t, p.ContainsAll(NewPath(b1)))
	assert.False(t, p.ContainsAll(NewPath(b1, b3)))

	// Blocks come back in natural block order regardless of insertion order
	blocks := p.Blocks()
	require.Len(t, blocks, 2)
	assert.Same(t, b1, blocks[0])
	assert.Same(t, b2, blocks[1])
	assert.Equal(t, []string{"b1", "b2"}, p.BlockIDs())
}
