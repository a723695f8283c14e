package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyqc/internal/model"
)

func TestBreakoffByPosition(t *testing.T) {
	s := linearSurvey(t)
	q1, _ := s.QuestionByID("q1")
	q2, _ := s.QuestionByID("q2")
	q3, _ := s.QuestionByID("q3")

	responses := []*model.SurveyResponse{
		respond("r1", pick{q1, 0}),
		respond("r2", pick{q1, 0}),
		respond("r3", pick{q1, 0}, pick{q2, 0}),
		respond("r4", pick{q1, 0}, pick{q2, 0}, pick{q3, 0}),
	}
	byPosition := BreakoffByPosition(responses)
	assert.Equal(t, 2, byPosition[1])
	assert.Equal(t, 1, byPosition[2])
	assert.Equal(t, 1, byPosition[3])
}

func TestBreakoffByQuestion(t *testing.T) {
	s := linearSurvey(t)
	q1, _ := s.QuestionByID("q1")
	q2, _ := s.QuestionByID("q2")

	responses := []*model.SurveyResponse{
		respond("r1", pick{q1, 0}),
		respond("r2", pick{q1, 0}, pick{q2, 0}),
		respond("r3", pick{q1, 0}, pick{q2, 1}),
	}
	byQuestion := BreakoffByQuestion(responses)
	assert.Equal(t, 1, byQuestion["q1"])
	assert.Equal(t, 2, byQuestion["q2"])
}

func TestBreakoffReportBundles(t *testing.T) {
	s := linearSurvey(t)
	q1, _ := s.QuestionByID("q1")

	report := BreakoffReport("s1", []*model.SurveyResponse{respond("r1", pick{q1, 0})})
	require.NotNil(t, report)
	assert.Equal(t, "s1", report.SurveyID)
	assert.Equal(t, 1, report.ByPosition[1])
	assert.Equal(t, 1, report.ByQuestion["q1"])
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestBreakoffIgnoresCustomQuestions(t *testing.T) {
	meta := makeQuestion("custom_check", 1, 2)
	q := makeQuestion("q1", 4, 2)
	sr := respond("r1", pick{q, 0}, pick{meta, 0})

	assert.Equal(t, 1, BreakoffByPosition([]*model.SurveyResponse{sr})[1])
	assert.Equal(t, "q1", sr.LastAnswered().Question.ID)
}
