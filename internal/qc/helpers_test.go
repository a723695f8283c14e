package qc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"surveyqc/internal/model"
)

func makeQuestion(id string, row, numOptions int) *model.Question {
	q := &model.Question{ID: id, Text: id, SourceRow: row, Exclusive: true}
	for i := 0; i < numOptions; i++ {
		q.Options = append(q.Options, &model.Option{
			ID:        fmt.Sprintf("%s_o%d", id, i+1),
			Text:      fmt.Sprintf("%s option %d", id, i+1),
			SourceRow: row + 1 + i,
		})
	}
	return q
}

// linearSurvey is three fixed blocks with one two-option question each.
func linearSurvey(t *testing.T) *model.Survey {
	t.Helper()
	s := &model.Survey{ID: "linear", TopLevelBlocks: []*model.Block{
		{ID: "b1", Index: 1, Questions: []*model.Question{makeQuestion("q1", 1, 2)}},
		{ID: "b2", Index: 2, Questions: []*model.Question{makeQuestion("q2", 4, 2)}},
		{ID: "b3", Index: 3, Questions: []*model.Question{makeQuestion("q3", 7, 2)}},
	}}
	require.NoError(t, s.Link())
	return s
}

// branchingSurvey routes q1's first option to b3 (skipping b2) and its second
// option to b2.
func branchingSurvey(t *testing.T) *model.Survey {
	t.Helper()
	s := linearSurvey(t)
	q1, _ := s.QuestionByID("q1")
	b2, _ := s.BlockByID("b2")
	b3, _ := s.BlockByID("b3")
	q1.BranchMap = map[string]*model.Block{
		q1.Options[0].ID: b3,
		q1.Options[1].ID: b2,
	}
	require.NoError(t, s.Link())
	return s
}

type pick struct {
	q   *model.Question
	opt int
}

// respond builds a response selecting one option per question, shown in the
// given order.
func respond(id string, picks ...pick) *model.SurveyResponse {
	sr := &model.SurveyResponse{ID: id, KnownValidity: model.ValidityMaybe, ComputedValidity: model.ValidityMaybe}
	for i, p := range picks {
		sr.Responses = append(sr.Responses, &model.QuestionResponse{
			Question:  p.q,
			Opts:      []model.OptTuple{{Option: p.q.Options[p.opt], Index: 0}},
			IndexSeen: i,
		})
	}
	return sr
}
