package qc

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/montanaflynn/stats"

	"surveyqc/internal/model"
)

// DefaultBootstrapIterations is the resample count used when a session is
// constructed without an explicit iteration count.
const DefaultBootstrapIterations = 2000

// Session owns the memoized bootstrap state for one QC run: the resampled
// response collections keyed by answered-question set, and the sorted score
// means keyed by classifier and question set. Sessions replace process-global
// caches so that surveys and tests cannot leak state into each other; Reset
// drops everything. Safe for concurrent use.
type Session struct {
	iterations int

	mu      sync.Mutex
	rng     *rand.Rand
	samples map[string][][]*model.SurveyResponse
	means   map[string][]float64
}

// NewSession creates a QC session. iterations <= 0 selects the default.
func NewSession(rng *rand.Rand, iterations int) *Session {
	if iterations <= 0 {
		iterations = DefaultBootstrapIterations
	}
	return &Session{
		iterations: iterations,
		rng:        rng,
		samples:    make(map[string][][]*model.SurveyResponse),
		means:      make(map[string][]float64),
	}
}

// Reset drops all memoized bootstrap state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make(map[string][][]*model.SurveyResponse)
	s.means = make(map[string][]float64)
}

// questionSetKey identifies the exact set of questions a response answered.
func questionSetKey(sr *model.SurveyResponse) string {
	ids := make([]string, 0, len(sr.Responses))
	for _, qr := range sr.AllResponses() {
		ids = append(ids, qr.Question.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// GenerateBootstrapSample draws iterations resampled collections of the same
// size as responses, sampling with replacement.
func GenerateBootstrapSample(responses []*model.SurveyResponse, iterations int, rng *rand.Rand) [][]*model.SurveyResponse {
	sample := make([][]*model.SurveyResponse, iterations)
	for i := 0; i < iterations; i++ {
		resample := make([]*model.SurveyResponse, len(responses))
		for j := range responses {
			resample[j] = responses[rng.Intn(len(responses))]
		}
		sample[i] = resample
	}
	return sample
}

// bootstrapSample returns the memoized resample for the question set sr
// answered, generating it on first use.
func (s *Session) bootstrapSample(sr *model.SurveyResponse, responses []*model.SurveyResponse) [][]*model.SurveyResponse {
	key := questionSetKey(sr)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sample, ok := s.samples[key]; ok {
		return sample
	}
	sample := GenerateBootstrapSample(responses, s.iterations, s.rng)
	s.samples[key] = sample
	return sample
}

// cachedMeans returns the sorted empirical null distribution of mean
// classifier scores for responses sharing sr's question set. The result is
// ascending; quantile thresholds index directly into it.
func (s *Session) cachedMeans(
	sr *model.SurveyResponse,
	responses []*model.SurveyResponse,
	probs Probabilities,
	classifier model.Classifier,
) ([]float64, error) {
	sample := s.bootstrapSample(sr, responses)
	key := string(classifier) + "/" + questionSetKey(sr)

	s.mu.Lock()
	if means, ok := s.means[key]; ok {
		s.mu.Unlock()
		return means, nil
	}
	s.mu.Unlock()

	means := make([]float64, 0, len(sample))
	for _, resample := range sample {
		scores := make([]float64, 0, len(resample))
		for _, other := range resample {
			switch classifier {
			case model.ClassifierLogLikelihood:
				subset, err := responseSubset(sr, other)
				if err != nil {
					return nil, err
				}
				scores = append(scores, LogLikelihood(subset, probs))
			case model.ClassifierEntropy:
				scores = append(scores, ResponseEntropy(other, probs))
			default:
				return nil, fmt.Errorf("classifier %s has no bootstrap score", classifier)
			}
		}
		mean, err := stats.Mean(scores)
		if err != nil {
			return nil, err
		}
		means = append(means, mean)
	}
	sort.Float64s(means)

	s.mu.Lock()
	s.means[key] = means
	s.mu.Unlock()
	return means, nil
}
