package qc

import (
	"time"

	"surveyqc/internal/model"
)

// BreakoffByPosition aggregates, per answered-question count, how many
// respondents stopped after answering exactly that many content questions.
func BreakoffByPosition(responses []*model.SurveyResponse) model.BreakoffByPosition {
	breakoff := make(model.BreakoffByPosition)
	for _, sr := range responses {
		breakoff[len(sr.NonCustomResponses())]++
	}
	return breakoff
}

// BreakoffByQuestion aggregates, per question, how many respondents answered
// it last (by position shown).
func BreakoffByQuestion(responses []*model.SurveyResponse) model.BreakoffByQuestion {
	breakoff := make(model.BreakoffByQuestion)
	for _, sr := range responses {
		if last := sr.LastAnswered(); last != nil {
			breakoff[last.Question.ID]++
		}
	}
	return breakoff
}

// BreakoffReport bundles both aggregates for a survey's response set.
func BreakoffReport(surveyID string, responses []*model.SurveyResponse) *model.BreakoffReport {
	return &model.BreakoffReport{
		SurveyID:    surveyID,
		ByPosition:  BreakoffByPosition(responses),
		ByQuestion:  BreakoffByQuestion(responses),
		GeneratedAt: time.Now(),
	}
}
