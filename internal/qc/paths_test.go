package qc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyqc/internal/model"
)

func TestGetPathsLinear(t *testing.T) {
	s := linearSurvey(t)
	paths := GetPaths(s)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"b1", "b2", "b3"}, paths[0].BlockIDs())
}

// TestGetPathsBranching verifies the branch fans out into one traversal per
// destination: through b2 and b3, or straight to b3.
func TestGetPathsBranching(t *testing.T) {
	s := branchingSurvey(t)
	paths := GetPaths(s)
	require.Len(t, paths, 2)

	var ids [][]string
	for _, p := range paths {
		ids = append(ids, p.BlockIDs())
	}
	assert.Contains(t, ids, []string{"b1", "b3"})
	assert.Contains(t, ids, []string{"b1", "b2", "b3"})
}

// TestGetPathsRandomizableOnEveryPath verifies a randomizable block, which is
// always shown, joins every enumerated path.
func TestGetPathsRandomizableOnEveryPath(t *testing.T) {
	s := branchingSurvey(t)
	b4 := &model.Block{ID: "b4", Index: 4, Randomizable: true,
		Questions: []*model.Question{makeQuestion("q4", 10, 2)}}
	s.TopLevelBlocks = append(s.TopLevelBlocks, b4)
	require.NoError(t, s.Link())

	for _, p := range GetPaths(s) {
		assert.True(t, p.Contains(b4))
	}
}

func TestPathLengths(t *testing.T) {
	s := branchingSurvey(t)
	rng := rand.New(rand.NewSource(19))
	assert.Equal(t, 2, MinimumPathLength(s, rng))
	assert.Equal(t, 3, MaximumPathLength(s, rng))
}

// TestAveragePathLength verifies the estimate for a survey whose uniform
// respondent sees 2 or 3 questions with equal probability.
func TestAveragePathLength(t *testing.T) {
	s := branchingSurvey(t)
	avg, err := AveragePathLength(s, 2000, rand.New(rand.NewSource(29)))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, avg, 0.1)
}

// TestAveragePathLengthBranchFree verifies every uniform respondent of a
// branch-free survey answers every question, so the average is exact.
func TestAveragePathLengthBranchFree(t *testing.T) {
	s := linearSurvey(t)
	rng := rand.New(rand.NewSource(31))
	avg, err := AveragePathLength(s, 500, rng)
	require.NoError(t, err)
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, 3, MinimumPathLength(s, rng))
	assert.Equal(t, 3, MaximumPathLength(s, rng))
}

func TestAveragePathLengthRejectsZeroRuns(t *testing.T) {
	_, err := AveragePathLength(linearSurvey(t), 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestResponsePath(t *testing.T) {
	s := branchingSurvey(t)
	q1, _ := s.QuestionByID("q1")
	q3, _ := s.QuestionByID("q3")
	b1, _ := s.BlockByID("b1")
	b2, _ := s.BlockByID("b2")

	p := ResponsePath(respond("r1", pick{q1, 0}, pick{q3, 0}))
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Contains(b1))
	assert.False(t, p.Contains(b2))
}

func TestFrequenciesForPathsBuckets(t *testing.T) {
	s := branchingSurvey(t)
	q1, _ := s.QuestionByID("q1")
	q2, _ := s.QuestionByID("q2")
	q3, _ := s.QuestionByID("q3")
	paths := GetPaths(s)

	short := respond("short", pick{q1, 0}, pick{q3, 0})
	long := respond("long", pick{q1, 1}, pick{q2, 0}, pick{q3, 0})
	buckets, err := FrequenciesForPaths(paths, []*model.SurveyResponse{short, long})
	require.NoError(t, err)

	total := 0
	for _, bucket := range buckets {
		total += len(bucket)
	}
	assert.Equal(t, 2, total)

	for p, bucket := range buckets {
		for _, sr := range bucket {
			assert.True(t, p.ContainsAll(ResponsePath(sr)))
		}
	}
}

func TestFrequenciesForPathsRejectsForeignResponse(t *testing.T) {
	s := branchingSurvey(t)
	paths := GetPaths(s)

	foreign := makeQuestion("qx", 50, 2)
	foreign.Block = &model.Block{ID: "bx", Index: 9}
	_, err := FrequenciesForPaths(paths, []*model.SurveyResponse{respond("r", pick{foreign, 0})})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStructural)
}

// TestPathQuestionsAllBlock verifies an ALL-paradigm block contributes one
// wording variant to the path's question list.
func TestPathQuestionsAllBlock(t *testing.T) {
	qa := makeQuestion("qa", 2, 3)
	qb := makeQuestion("qb", 2, 3)
	s := &model.Survey{ID: "s", TopLevelBlocks: []*model.Block{
		{ID: "b1", Index: 1, Paradigm: model.BranchAll, Questions: []*model.Question{qa, qb}},
		{ID: "b2", Index: 2, Questions: []*model.Question{makeQuestion("q2", 10, 2)}},
	}}
	require.NoError(t, s.Link())

	paths := GetPaths(s)
	require.Len(t, paths, 1)
	questions := PathQuestions(paths[0], rand.New(rand.NewSource(37)))
	require.Len(t, questions, 2)
	assert.Contains(t, []string{"qa", "qb"}, questions[0].ID)
	assert.Equal(t, "q2", questions[1].ID)
}

func TestSurveyEntropyUniformSplit(t *testing.T) {
	q := makeQuestion("q1", 1, 2)
	s := &model.Survey{ID: "s", TopLevelBlocks: []*model.Block{
		{ID: "b1", Index: 1, Questions: []*model.Question{q}},
	}}
	require.NoError(t, s.Link())

	responses := []*model.SurveyResponse{
		respond("r1", pick{q, 0}),
		respond("r2", pick{q, 0}),
		respond("r3", pick{q, 1}),
		respond("r4", pick{q, 1}),
	}
	ent, err := SurveyEntropy(s, responses)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ent, 1e-9)
}

func TestSurveyEntropyNeedsTwoResponses(t *testing.T) {
	s := linearSurvey(t)
	ent, err := SurveyEntropy(s, nil)
	require.NoError(t, err)
	assert.Zero(t, ent)
}

func TestMaxPossibleEntropy(t *testing.T) {
	s := linearSurvey(t)
	// three questions with two options each
	assert.InDelta(t, 3.0, MaxPossibleEntropy(s, rand.New(rand.NewSource(53))), 1e-9)
}
