// Package qc is the quality-control engine: it enumerates survey paths,
// builds empirical and theoretical probability models from observed answers,
// classifies responses as valid or invalid, and searches for wording and
// order biases.
package qc

import (
	"fmt"
	"math"

	"surveyqc/internal/model"
)

// Frequencies maps question ID to option ID to observed selection count.
type Frequencies map[string]map[string]int

// Probabilities maps question ID to option ID to selection probability.
type Probabilities map[string]map[string]float64

// log2 treats 0 as contributing nothing, which keeps entropy sums defined
// for unobserved outcomes.
func log2(p float64) float64 {
	if p == 0 {
		return 0
	}
	return math.Log2(p)
}

// MakeFrequencies counts option selections per question across all
// responses. When survey is non-nil, Laplace (+1) smoothing is applied:
// every option of every question gets its observed count plus one, so
// unobserved options count exactly 1.
func MakeFrequencies(responses []*model.SurveyResponse, survey *model.Survey) Frequencies {
	freqs := make(Frequencies)
	for _, sr := range responses {
		for _, qr := range sr.NonCustomResponses() {
			counts, ok := freqs[qr.Question.ID]
			if !ok {
				counts = make(map[string]int)
				freqs[qr.Question.ID] = counts
			}
			for _, ot := range qr.Opts {
				counts[ot.Option.ID]++
			}
		}
	}
	if survey != nil {
		for _, q := range survey.Questions {
			counts, ok := freqs[q.ID]
			if !ok {
				counts = make(map[string]int)
				freqs[q.ID] = counts
			}
			for _, o := range q.Options {
				counts[o.ID]++
			}
		}
	}
	return freqs
}

// MakeProbabilities normalizes each question's option counts to sum to 1.
func MakeProbabilities(freqs Frequencies) Probabilities {
	probs := make(Probabilities, len(freqs))
	for quid, counts := range freqs {
		total := 0
		for _, n := range counts {
			total += n
		}
		probs[quid] = make(map[string]float64, len(counts))
		for cid, n := range counts {
			probs[quid][cid] = float64(n) / float64(total)
		}
	}
	return probs
}

// LogLikelihood scores a set of question responses as the sum of
// log2 P(option | question) over every selected option.
func LogLikelihood(qrs []*model.QuestionResponse, probs Probabilities) float64 {
	ll := 0.0
	for _, qr := range qrs {
		for _, ot := range qr.Opts {
			ll += log2(probs[qr.Question.ID][ot.Option.ID])
		}
	}
	return ll
}

// ResponseEntropy scores a response as -sum p*log2(p) over its selected
// options.
func ResponseEntropy(sr *model.SurveyResponse, probs Probabilities) float64 {
	ent := 0.0
	for _, qr := range sr.NonCustomResponses() {
		for _, ot := range qr.Opts {
			p := probs[qr.Question.ID][ot.Option.ID]
			ent += p * log2(p)
		}
	}
	return -ent
}

// responseSubset projects target onto the questions base answered, matching
// wording variants: for each of base's content questions, the target's
// answer to any variant counts. Returns nil when the target did not cover
// every question of the base.
func responseSubset(base, target *model.SurveyResponse) ([]*model.QuestionResponse, error) {
	var subset []*model.QuestionResponse
	for _, qr := range base.NonCustomResponses() {
		found := false
		for _, variant := range qr.Question.Variants() {
			tr := target.ResponseFor(variant)
			if tr == nil {
				continue
			}
			if found {
				return nil, fmt.Errorf("%w: response %s answers two variants of question %s",
					model.ErrStructural, target.ID, qr.Question.ID)
			}
			subset = append(subset, tr)
			found = true
		}
		if !found {
			return nil, nil
		}
	}
	return subset, nil
}

// logLikelihoods computes the log-likelihood of every response restricted to
// the question set of base. Responses that did not answer base's questions
// (or their variants) are skipped.
func logLikelihoods(base *model.SurveyResponse, responses []*model.SurveyResponse, probs Probabilities) ([]float64, error) {
	var lls []float64
	for _, sr := range responses {
		subset, err := responseSubset(base, sr)
		if err != nil {
			return nil, err
		}
		if len(subset) == 0 {
			continue
		}
		lls = append(lls, LogLikelihood(subset, probs))
	}
	return lls, nil
}
