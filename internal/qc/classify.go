package qc

import (
	"fmt"
	"log"
	"math"
	"sort"

	"surveyqc/internal/model"
)

// minDistinctScores is the discriminative-power floor: threshold-based
// policies short-circuit to "valid" when fewer distinct likelihood values
// exist across the sample.
const minDistinctScores = 6

// lpoDelta scales the mean low-probability proportion into the LPO
// invalidity threshold.
const lpoDelta = 0.5

func distinctCount(values []float64) int {
	seen := make(map[float64]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

// LogLikelihoodClassification decides validity by comparing the response's
// log-likelihood against the alpha-quantile of the bootstrapped null
// distribution. Valid iff the score exceeds the threshold. The score and
// threshold are recorded on the response.
func (s *Session) LogLikelihoodClassification(
	survey *model.Survey,
	sr *model.SurveyResponse,
	responses []*model.SurveyResponse,
	smoothing bool,
	alpha float64,
) (bool, error) {
	var smoothWith *model.Survey
	if smoothing {
		smoothWith = survey
	}
	probs := MakeProbabilities(MakeFrequencies(responses, smoothWith))
	lls, err := logLikelihoods(sr, responses, probs)
	if err != nil {
		return false, err
	}
	if distinctCount(lls) < minDistinctScores {
		return true, nil
	}
	score := LogLikelihood(sr.NonCustomResponses(), probs)
	means, err := s.cachedMeans(sr, responses, probs, model.ClassifierLogLikelihood)
	if err != nil {
		return false, err
	}
	threshold := means[int(math.Floor(alpha*float64(len(means))))]
	sr.Score = score
	sr.Threshold = threshold
	return score > threshold, nil
}

// EntropyClassification decides validity by comparing the response's entropy
// against the alpha-quantile of the bootstrapped null distribution. Valid iff
// the score is below the threshold: low entropy means a more deterministic,
// more plausibly attentive response.
func (s *Session) EntropyClassification(
	survey *model.Survey,
	sr *model.SurveyResponse,
	responses []*model.SurveyResponse,
	smoothing bool,
	alpha float64,
) (bool, error) {
	var smoothWith *model.Survey
	if smoothing {
		smoothWith = survey
	}
	probs := MakeProbabilities(MakeFrequencies(responses, smoothWith))
	lls, err := logLikelihoods(sr, responses, probs)
	if err != nil {
		return false, err
	}
	if distinctCount(lls) < minDistinctScores {
		return true, nil
	}
	score := ResponseEntropy(sr, probs)
	means, err := s.cachedMeans(sr, responses, probs, model.ClassifierEntropy)
	if err != nil {
		return false, err
	}
	idx := int(math.Ceil(alpha * float64(len(means))))
	if idx >= len(means) {
		idx = len(means) - 1
	}
	threshold := means[idx]
	sr.Score = score
	sr.Threshold = threshold
	return score < threshold, nil
}

// LPOClassification flags responses that select low-probability outcomes too
// often. Per question, the lowest-count option tier is flagged, along with
// each subsequent tier within (1+epsilon) of the previous one; a response's
// score is the number of answered questions whose selection is flagged, and
// it is invalid when that count exceeds (1-delta) times the mean flagged
// proportion across questions. Scores, thresholds and computed validity are
// written onto the responses.
func LPOClassification(
	survey *model.Survey,
	responses []*model.SurveyResponse,
	smoothing bool,
	epsilon float64,
) error {
	var smoothWith *model.Survey
	if smoothing {
		smoothWith = survey
	}
	freqs := MakeFrequencies(responses, smoothWith)

	lpos := make(map[string]map[string]bool)
	for _, q := range survey.Questions {
		counts, ok := freqs[q.ID]
		if !ok || len(counts) < 2 {
			continue
		}
		tiers := make([]int, 0, len(counts))
		for _, n := range counts {
			tiers = append(tiers, n)
		}
		sort.Ints(tiers)

		flagged := map[int]bool{tiers[0]: true}
		for i := 1; i < len(tiers); i++ {
			if float64(tiers[i]) > (1+epsilon)*float64(tiers[i-1]) {
				break
			}
			flagged[tiers[i]] = true
		}

		these := make(map[string]bool)
		for cid, n := range counts {
			if flagged[n] {
				these[cid] = true
			}
		}
		// a question where everything is low-probability discriminates
		// nothing
		if len(these) == len(counts) {
			continue
		}
		lpos[q.ID] = these
	}

	mu := 0.0
	for _, q := range survey.Questions {
		if these, ok := lpos[q.ID]; ok && len(q.Options) > 0 {
			mu += float64(len(these)) / float64(len(q.Options))
		}
	}
	threshold := (1 - lpoDelta) * mu

	for _, sr := range responses {
		count := 0
		for _, qr := range sr.AllResponses() {
			these, ok := lpos[qr.Question.ID]
			if !ok || len(qr.Opts) == 0 {
				continue
			}
			all := true
			for _, ot := range qr.Opts {
				if !these[ot.Option.ID] {
					all = false
					break
				}
			}
			if all {
				count++
			}
		}
		sr.Score = float64(count)
		sr.Threshold = threshold
		if float64(count) > threshold {
			sr.ComputedValidity = model.ValidityNo
		} else {
			sr.ComputedValidity = model.ValidityYes
		}
	}
	return nil
}

// ClassifyResponses applies the selected policy to every response and
// returns the per-response outcomes. Scores, thresholds and validity labels
// are also written back onto the responses.
func (s *Session) ClassifyResponses(
	survey *model.Survey,
	responses []*model.SurveyResponse,
	classifier model.Classifier,
	smoothing bool,
	alpha float64,
) ([]model.ClassificationStruct, error) {
	switch classifier {
	case model.ClassifierCluster:
		if err := ClusterResponses(responses, int(alpha), true, s.rng, survey.Questions); err != nil {
			return nil, err
		}
		return collectLabeled(responses, classifier), nil
	case model.ClassifierLPO:
		if err := LPOClassification(survey, responses, smoothing, lpoDelta); err != nil {
			return nil, err
		}
		return collectLabeled(responses, classifier), nil
	case model.ClassifierStacked:
		if err := LPOClassification(survey, responses, smoothing, lpoDelta); err != nil {
			return nil, err
		}
		if err := ClusterResponses(responses, int(alpha), false, s.rng, survey.Questions); err != nil {
			return nil, err
		}
		return collectLabeled(responses, model.ClassifierLPO), nil
	}

	var results []model.ClassificationStruct
	numValid, numInvalid := 0, 0
	for i, sr := range responses {
		if i%25 == 0 && i > 0 {
			log.Printf("classified %d responses (%d valid, %d invalid) using %s policy",
				i, numValid, numInvalid, classifier)
		}
		var valid bool
		var err error
		switch classifier {
		case model.ClassifierEntropy:
			valid, err = s.EntropyClassification(survey, sr, responses, smoothing, alpha)
		case model.ClassifierLogLikelihood:
			valid, err = s.LogLikelihoodClassification(survey, sr, responses, smoothing, alpha)
		case model.ClassifierAll:
			valid = true
		default:
			err = fmt.Errorf("unknown classification policy: %s", classifier)
		}
		if err != nil {
			return nil, err
		}
		if valid {
			sr.ComputedValidity = model.ValidityYes
			numValid++
		} else {
			sr.ComputedValidity = model.ValidityNo
			numInvalid++
		}
		results = append(results, model.ClassificationStruct{
			ResponseID:    sr.ID,
			Classifier:    classifier,
			QuestionCount: len(sr.NonCustomResponses()),
			Score:         sr.Score,
			Threshold:     sr.Threshold,
			Valid:         valid,
		})
	}
	log.Printf("finished classifying %d responses with %s policy", len(responses), classifier)
	return results, nil
}

func collectLabeled(responses []*model.SurveyResponse, classifier model.Classifier) []model.ClassificationStruct {
	results := make([]model.ClassificationStruct, 0, len(responses))
	for _, sr := range responses {
		results = append(results, model.ClassificationStruct{
			ResponseID:    sr.ID,
			Classifier:    classifier,
			QuestionCount: len(sr.AllResponses()),
			Score:         sr.Score,
			Threshold:     sr.Threshold,
			Valid:         sr.ComputedValidity == model.ValidityYes,
		})
	}
	return results
}
