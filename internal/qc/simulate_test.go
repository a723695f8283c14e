package qc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyqc/internal/interpreter"
)

func TestSimulateRespondents(t *testing.T) {
	s := branchingSurvey(t)
	responses, err := SimulateRespondents(s, 40, interpreter.AdversaryUniform, rand.New(rand.NewSource(149)))
	require.NoError(t, err)
	require.Len(t, responses, 40)

	ids := make(map[string]bool, len(responses))
	for _, sr := range responses {
		assert.NotEmpty(t, sr.ID)
		assert.False(t, ids[sr.ID], "duplicate response id")
		ids[sr.ID] = true
		n := len(sr.NonCustomResponses())
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 3)
	}
}

// TestSimulateRespondentsFirstAdversary verifies the deterministic profile
// always takes the branch of the first option.
func TestSimulateRespondentsFirstAdversary(t *testing.T) {
	s := branchingSurvey(t)
	q2, _ := s.QuestionByID("q2")

	responses, err := SimulateRespondents(s, 10, interpreter.AdversaryFirst, rand.New(rand.NewSource(151)))
	require.NoError(t, err)
	for _, sr := range responses {
		// first option on q1 branches to b3, so q2 is never seen
		assert.False(t, sr.HasResponseFor(q2))
	}
}
