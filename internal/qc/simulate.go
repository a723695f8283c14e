package qc

import (
	"math/rand"

	"surveyqc/internal/interpreter"
	"surveyqc/internal/model"
)

func interpreterRun(s *model.Survey, rng *rand.Rand) (*model.SurveyResponse, error) {
	rr, err := interpreter.NewRandomRespondent(s, interpreter.AdversaryUniform, rng)
	if err != nil {
		return nil, err
	}
	return rr.Response(), nil
}

// SimulateRespondents produces n independent simulated traversals of the
// survey under the given answering policy.
func SimulateRespondents(s *model.Survey, n int, adv interpreter.AdversaryType, rng *rand.Rand) ([]*model.SurveyResponse, error) {
	responses := make([]*model.SurveyResponse, 0, n)
	for i := 0; i < n; i++ {
		rr, err := interpreter.NewRandomRespondent(s, adv, rng)
		if err != nil {
			return nil, err
		}
		responses = append(responses, rr.Response())
	}
	return responses, nil
}
