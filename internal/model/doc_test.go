package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFixture() *SurveyDoc {
	return &SurveyDoc{
		ID:   "s1",
		Name: "fixture",
		Blocks: []BlockDoc{
			{
				ID: "b1", Index: 1, Paradigm: "ONE",
				Questions: []QuestionDoc{
					{
						ID: "q1", Text: "screener", SourceRow: 1, Exclusive: true,
						Options: []Option{
							{ID: "q1_o1", Text: "yes", SourceRow: 2},
							{ID: "q1_o2", Text: "no", SourceRow: 3},
						},
						BranchMap: map[string]string{"q1_o1": "b2", "q1_o2": "b3"},
					},
				},
			},
			{
				ID: "b2", Index: 2,
				Questions: []QuestionDoc{
					{
						ID: "q2", Text: "followup", SourceRow: 4, Exclusive: true,
						Options: []Option{
							{ID: "q2_o1", Text: "a", SourceRow: 5},
							{ID: "q2_o2", Text: "b", SourceRow: 6},
						},
					},
				},
			},
			{
				ID: "b3", Index: 3,
				Questions: []QuestionDoc{
					{ID: "q3", Text: "comments", SourceRow: 7, Freetext: true},
				},
			},
		},
	}
}

func TestBuildResolvesBranches(t *testing.T) {
	s, err := docFixture().Build()
	require.NoError(t, err)

	q1, ok := s.QuestionByID("q1")
	require.True(t, ok)
	require.True(t, q1.IsBranchQuestion())

	b2, ok := s.BlockByID("b2")
	require.True(t, ok)
	dest, err := q1.BranchDestination(q1.Options[0])
	require.NoError(t, err)
	assert.Same(t, b2, dest)
	assert.Same(t, q1, q1.Block.BranchQ)

	q3, ok := s.QuestionByID("q3")
	require.True(t, ok)
	assert.True(t, q3.Freetext)
}

func TestBuildRejectsUnknownBranchBlock(t *testing.T) {
	doc := docFixture()
	doc.Blocks[0].Questions[0].BranchMap["q1_o2"] = "nope"
	_, err := doc.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestBuildRejectsUnknownBranchOption(t *testing.T) {
	doc := docFixture()
	doc.Blocks[0].Questions[0].BranchMap["q1_o9"] = "b2"
	_, err := doc.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestBuildDefaultsParadigmToNone(t *testing.T) {
	s, err := docFixture().Build()
	require.NoError(t, err)
	b2, ok := s.BlockByID("b2")
	require.True(t, ok)
	assert.Equal(t, BranchNone, b2.Paradigm)
}

// TestStoredResponseRoundTrip verifies that a response survives flattening
// for persistence and restoring against the survey tree.
func TestStoredResponseRoundTrip(t *testing.T) {
	s, err := docFixture().Build()
	require.NoError(t, err)
	q1, _ := s.QuestionByID("q1")
	q3, _ := s.QuestionByID("q3")

	sr := &SurveyResponse{
		ID:            "r1",
		KnownValidity: ValidityYes,
		Responses: []*QuestionResponse{
			answered(q1, q1.Options[1], 0),
			{Question: q3, Text: "fine", IndexSeen: 1},
		},
	}

	doc := NewStoredResponse("s1", sr)
	assert.Equal(t, "s1", doc.SurveyID)
	require.Len(t, doc.Answers, 2)

	restored, err := doc.Restore(s)
	require.NoError(t, err)
	assert.Equal(t, "r1", restored.ID)
	assert.Equal(t, ValidityYes, restored.KnownValidity)
	require.Len(t, restored.Responses, 2)

	got := restored.ResponseFor(q1)
	require.NotNil(t, got)
	o, err := got.Answer()
	require.NoError(t, err)
	assert.Equal(t, "q1_o2", o.ID)

	free := restored.ResponseFor(q3)
	require.NotNil(t, free)
	assert.Equal(t, "fine", free.Text)
	assert.Equal(t, 1, free.IndexSeen)
}

func TestRestoreRejectsUnknownQuestion(t *testing.T) {
	s, err := docFixture().Build()
	require.NoError(t, err)

	doc := &StoredResponse{
		ID:       "r1",
		SurveyID: "s1",
		Answers:  []StoredAnswer{{QuestionID: "ghost"}},
	}
	_, err = doc.Restore(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestRestoreDefaultsValidityToMaybe(t *testing.T) {
	s, err := docFixture().Build()
	require.NoError(t, err)

	doc := &StoredResponse{ID: "r1", SurveyID: "s1"}
	restored, err := doc.Restore(s)
	require.NoError(t, err)
	assert.Equal(t, ValidityMaybe, restored.KnownValidity)
	assert.Equal(t, ValidityMaybe, restored.ComputedValidity)
}
