package model

import (
	"fmt"
	"sort"
)

// ValidityStatus labels a response's validity, either known a priori (for
// simulated respondents) or computed by a classifier.
type ValidityStatus string

const (
	ValidityYes   ValidityStatus = "YES"
	ValidityNo    ValidityStatus = "NO"
	ValidityMaybe ValidityStatus = "MAYBE"
)

// OptTuple is a selected option together with the 0-based order in which the
// respondent selected it.
type OptTuple struct {
	Option *Option `json:"option"`
	Index  int     `json:"index"`
}

// QuestionResponse is a single answered question within a survey response.
type QuestionResponse struct {
	Question *Question
	Opts     []OptTuple

	// Text holds the freetext answer when Question.Freetext is set.
	Text string

	// IndexSeen is the 0-based position at which the question was shown.
	IndexSeen int
}

// Answer returns the single selected option of an exclusive question.
func (qr *QuestionResponse) Answer() (*Option, error) {
	if !qr.Question.Exclusive {
		return nil, fmt.Errorf("%w: Answer called on non-exclusive question %s; use Answers", ErrAPIMisuse, qr.Question.ID)
	}
	if len(qr.Opts) == 0 {
		return nil, fmt.Errorf("%w: question %s has no selected option", ErrStructural, qr.Question.ID)
	}
	return qr.Opts[0].Option, nil
}

// Answers returns the selected options of a non-exclusive question.
func (qr *QuestionResponse) Answers() ([]*Option, error) {
	if qr.Question.Exclusive {
		return nil, fmt.Errorf("%w: Answers called on exclusive question %s; use Answer", ErrAPIMisuse, qr.Question.ID)
	}
	opts := make([]*Option, len(qr.Opts))
	for i, ot := range qr.Opts {
		opts[i] = ot.Option
	}
	return opts, nil
}

// OptionIDs returns the selected option IDs in selection order.
func (qr *QuestionResponse) OptionIDs() []string {
	ids := make([]string, len(qr.Opts))
	for i, ot := range qr.Opts {
		ids[i] = ot.Option.ID
	}
	return ids
}

// SurveyResponse is one respondent's complete traversal, plus the score,
// threshold and validity labels attached by the quality-control engine.
type SurveyResponse struct {
	ID        string
	Responses []*QuestionResponse

	Score            float64
	Threshold        float64
	KnownValidity    ValidityStatus
	ComputedValidity ValidityStatus
	ClusterLabel     string
}

// AllResponses returns every answered question, sorted by the order in which
// the questions were shown.
func (sr *SurveyResponse) AllResponses() []*QuestionResponse {
	out := append([]*QuestionResponse{}, sr.Responses...)
	sort.Slice(out, func(i, j int) bool { return out[i].IndexSeen < out[j].IndexSeen })
	return out
}

// NonCustomResponses returns the answered content questions, excluding meta
// questions, in the order shown.
func (sr *SurveyResponse) NonCustomResponses() []*QuestionResponse {
	var out []*QuestionResponse
	for _, qr := range sr.AllResponses() {
		if !qr.Question.IsCustom() {
			out = append(out, qr)
		}
	}
	return out
}

// HasResponseFor reports whether the respondent answered q.
func (sr *SurveyResponse) HasResponseFor(q *Question) bool {
	return sr.ResponseFor(q) != nil
}

// ResponseFor returns the answer to q, or nil if q was not answered.
func (sr *SurveyResponse) ResponseFor(q *Question) *QuestionResponse {
	for _, qr := range sr.Responses {
		if qr.Question.ID == q.ID {
			return qr
		}
	}
	return nil
}

// ContainsAnswer reports whether any of the given options was selected
// anywhere in this response. Callers pass a set of variant-equivalent options.
func (sr *SurveyResponse) ContainsAnswer(options []*Option) bool {
	for _, qr := range sr.Responses {
		for _, ot := range qr.Opts {
			for _, o := range options {
				if ot.Option.ID == o.ID {
					return true
				}
			}
		}
	}
	return false
}

// LastAnswered returns the question response with the highest IndexSeen, or
// nil for an empty response.
func (sr *SurveyResponse) LastAnswered() *QuestionResponse {
	var last *QuestionResponse
	for _, qr := range sr.NonCustomResponses() {
		if last == nil || qr.IndexSeen > last.IndexSeen {
			last = qr
		}
	}
	return last
}

// Point projects the response onto an answer vector over the given question
// order, for distance-based clustering. Each coordinate is the row offset of
// the first selected option, or -1 when the question was not answered.
func (sr *SurveyResponse) Point(questions []*Question) []float64 {
	point := make([]float64, len(questions))
	for i, q := range questions {
		point[i] = -1
		qr := sr.ResponseFor(q)
		if qr == nil || len(qr.Opts) == 0 {
			continue
		}
		point[i] = float64(q.RowOffset(qr.Opts[0].Option))
	}
	return point
}
