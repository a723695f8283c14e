package qc

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyqc/internal/model"
)

// gradedFixture is one block of five binary questions with seven clean
// responses (first option everywhere) and five graded responses, where the
// k-th graded response picks the minority option on the first k questions.
// The twelve responses produce six distinct log-likelihood values.
func gradedFixture(t *testing.T) (*model.Survey, []*model.SurveyResponse) {
	t.Helper()
	qs := make([]*model.Question, 5)
	for i := range qs {
		qs[i] = makeQuestion(fmt.Sprintf("q%d", i+1), 1+3*i, 2)
	}
	s := &model.Survey{ID: "graded", TopLevelBlocks: []*model.Block{
		{ID: "b1", Index: 1, Questions: qs},
	}}
	require.NoError(t, s.Link())

	var responses []*model.SurveyResponse
	for i := 0; i < 7; i++ {
		picks := make([]pick, 5)
		for j, q := range qs {
			picks[j] = pick{q, 0}
		}
		responses = append(responses, respond(fmt.Sprintf("clean%d", i), picks...))
	}
	for k := 1; k <= 5; k++ {
		picks := make([]pick, 5)
		for j, q := range qs {
			opt := 0
			if j < k {
				opt = 1
			}
			picks[j] = pick{q, opt}
		}
		responses = append(responses, respond(fmt.Sprintf("graded%d", k), picks...))
	}
	return s, responses
}

func TestGenerateBootstrapSample(t *testing.T) {
	_, responses := gradedFixture(t)
	sample := GenerateBootstrapSample(responses, 10, rand.New(rand.NewSource(61)))
	require.Len(t, sample, 10)

	byID := make(map[string]bool, len(responses))
	for _, sr := range responses {
		byID[sr.ID] = true
	}
	for _, resample := range sample {
		require.Len(t, resample, len(responses))
		for _, sr := range resample {
			assert.True(t, byID[sr.ID], "resample drew a response outside the collection")
		}
	}
}

// TestBootstrapSampleMemoized verifies resamples are generated once per
// answered-question set.
func TestBootstrapSampleMemoized(t *testing.T) {
	_, responses := gradedFixture(t)
	session := NewSession(rand.New(rand.NewSource(67)), 20)

	session.bootstrapSample(responses[0], responses)
	session.bootstrapSample(responses[1], responses)
	// every fixture response answers the same five questions
	assert.Len(t, session.samples, 1)
}

func TestCachedMeansSortedAndMemoized(t *testing.T) {
	_, responses := gradedFixture(t)
	session := NewSession(rand.New(rand.NewSource(71)), 50)
	probs := MakeProbabilities(MakeFrequencies(responses, nil))

	means, err := session.cachedMeans(responses[0], responses, probs, model.ClassifierLogLikelihood)
	require.NoError(t, err)
	require.Len(t, means, 50)
	assert.True(t, sort.Float64sAreSorted(means), "null distribution must be ascending")
	assert.Less(t, means[0], means[len(means)-1])

	again, err := session.cachedMeans(responses[0], responses, probs, model.ClassifierLogLikelihood)
	require.NoError(t, err)
	assert.Equal(t, means, again)
}

func TestCachedMeansUnknownClassifier(t *testing.T) {
	_, responses := gradedFixture(t)
	session := NewSession(rand.New(rand.NewSource(73)), 10)
	probs := MakeProbabilities(MakeFrequencies(responses, nil))

	_, err := session.cachedMeans(responses[0], responses, probs, model.ClassifierLPO)
	assert.Error(t, err)
}

func TestSessionReset(t *testing.T) {
	_, responses := gradedFixture(t)
	session := NewSession(rand.New(rand.NewSource(79)), 10)
	session.bootstrapSample(responses[0], responses)
	require.NotEmpty(t, session.samples)

	session.Reset()
	assert.Empty(t, session.samples)
	assert.Empty(t, session.means)
}

func TestSessionDefaultsIterations(t *testing.T) {
	session := NewSession(rand.New(rand.NewSource(83)), 0)
	assert.Equal(t, DefaultBootstrapIterations, session.iterations)
}

func TestQuestionSetKeyIsOrderIndependent(t *testing.T) {
	s := linearSurvey(t)
	q1, _ := s.QuestionByID("q1")
	q2, _ := s.QuestionByID("q2")

	a := respond("a", pick{q1, 0}, pick{q2, 0})
	b := respond("b", pick{q2, 1}, pick{q1, 1})
	assert.Equal(t, questionSetKey(a), questionSetKey(b))
}
