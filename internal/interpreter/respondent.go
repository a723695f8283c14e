package interpreter

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"surveyqc/internal/model"
)

// AdversaryType selects the answering policy of a simulated respondent.
type AdversaryType int

const (
	// AdversaryUniform picks options uniformly at random.
	AdversaryUniform AdversaryType = iota
	// AdversaryFirst always picks the first displayed option.
	AdversaryFirst
	// AdversaryLast always picks the last displayed option.
	AdversaryLast
)

// RandomRespondent drives an interpreter to termination under a fixed
// answering policy. Used for path-length estimation and the random
// correlation prior.
type RandomRespondent struct {
	response *model.SurveyResponse
}

// NewRandomRespondent simulates one complete traversal of the survey.
func NewRandomRespondent(s *model.Survey, adv AdversaryType, rng *rand.Rand) (*RandomRespondent, error) {
	it, err := New(s, rng)
	if err != nil {
		return nil, err
	}
	for !it.Terminated() {
		q, views, err := it.NextQuestion()
		if err != nil {
			return nil, err
		}
		if q.Freetext {
			if err := it.Answer(q, nil, uuid.NewString()); err != nil {
				return nil, err
			}
			continue
		}
		if len(views) == 0 {
			return nil, fmt.Errorf("%w: question %s has no options", model.ErrStructural, q.ID)
		}
		selection := selectOptions(q, views, adv, rng)
		if err := it.Answer(q, selection, ""); err != nil {
			return nil, err
		}
	}
	return &RandomRespondent{response: it.Response()}, nil
}

// Response returns the simulated survey response.
func (rr *RandomRespondent) Response() *model.SurveyResponse {
	return rr.response
}

func selectOptions(q *model.Question, views []OptionView, adv AdversaryType, rng *rand.Rand) []*model.Option {
	switch adv {
	case AdversaryFirst:
		return []*model.Option{views[0].Option}
	case AdversaryLast:
		return []*model.Option{views[len(views)-1].Option}
	}
	if q.Exclusive {
		return []*model.Option{views[rng.Intn(len(views))].Option}
	}
	// non-exclusive: each option is selected with probability 1/2, with at
	// least one selection
	var selection []*model.Option
	for _, v := range views {
		if rng.Intn(2) == 0 {
			selection = append(selection, v.Option)
		}
	}
	if len(selection) == 0 {
		selection = append(selection, views[rng.Intn(len(views))].Option)
	}
	return selection
}
