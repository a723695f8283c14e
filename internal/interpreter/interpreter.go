// Package interpreter simulates a single respondent's traversal through a
// survey: it resolves block and question ordering, applies randomization
// policies and follows branch directives, producing one SurveyResponse.
package interpreter

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"surveyqc/internal/model"
)

// ErrTerminated is returned by NextQuestion once the traversal is complete.
var ErrTerminated = errors.New("interpreter: traversal terminated")

// ErrAlreadyAnswered is returned by Answer on a second call for the same
// question within one run.
var ErrAlreadyAnswered = errors.New("interpreter: question already answered")

// OptionView is an option in its display position for one presentation of a
// question. The projection is returned instead of mutating shared Option
// state, so options can be shared across concurrent interpreters.
type OptionView struct {
	Option       *model.Option
	DisplayIndex int
}

// Interpreter is a per-respondent state machine over an immutable survey.
// It owns its traversal queues exclusively and must not be shared across
// goroutines.
type Interpreter struct {
	survey *model.Survey
	rng    *rand.Rand

	topLevel  []*model.Block
	questions []*model.Question
	branchTo  *model.Block

	responses map[string]*model.QuestionResponse
	seenIndex map[string]int
	served    int
}

// New constructs an interpreter with its own random source. The top-level
// blocks are shuffled once at construction and the first block is expanded
// into the pending-question queue.
func New(s *model.Survey, rng *rand.Rand) (*Interpreter, error) {
	if len(s.TopLevelBlocks) == 0 {
		return nil, fmt.Errorf("%w: survey %s has no top-level blocks", model.ErrStructural, s.ID)
	}
	it := &Interpreter{
		survey:    s,
		rng:       rng,
		topLevel:  shuffleTopLevel(s.TopLevelBlocks, rng),
		responses: make(map[string]*model.QuestionResponse),
		seenIndex: make(map[string]int),
	}
	first := it.topLevel[0]
	it.topLevel = it.topLevel[1:]
	qs, err := it.questionsForBlock(first)
	if err != nil {
		return nil, err
	}
	it.questions = qs
	return it, nil
}

// NextQuestion returns the next question in traversal order together with
// its options in display order. If the question is marked randomize, ordered
// option lists are reversed with probability 1/2 and unordered ones are fully
// shuffled; otherwise the original order is kept.
func (it *Interpreter) NextQuestion() (*model.Question, []OptionView, error) {
	q, err := it.nextQ()
	if err != nil {
		return nil, nil, err
	}
	if _, seen := it.seenIndex[q.ID]; !seen {
		it.seenIndex[q.ID] = it.served
		it.served++
	}

	opts := append([]*model.Option{}, q.Options...)
	if q.Randomize {
		if q.Ordered {
			if it.rng.Intn(2) == 0 {
				for i, j := 0, len(opts)-1; i < j; i, j = i+1, j-1 {
					opts[i], opts[j] = opts[j], opts[i]
				}
			}
		} else {
			it.rng.Shuffle(len(opts), func(i, j int) {
				opts[i], opts[j] = opts[j], opts[i]
			})
		}
	}
	views := make([]OptionView, len(opts))
	for i, o := range opts {
		views[i] = OptionView{Option: o, DisplayIndex: i}
	}
	return q, views, nil
}

// nextQ pops the pending-question queue, expanding top-level blocks as it
// drains. Blocks sitting before a pending branch target are discarded; the
// branch target itself is expanded like any other block, so its first
// question is served exactly once.
func (it *Interpreter) nextQ() (*model.Question, error) {
	if len(it.questions) > 0 {
		q := it.questions[0]
		it.questions = it.questions[1:]
		return q, nil
	}
	for len(it.topLevel) > 0 {
		top := it.topLevel[0]
		it.topLevel = it.topLevel[1:]

		if !top.IsRandomized() && it.branchTo != nil && top.ID != it.branchTo.ID {
			// un-taken block before the branch target
			continue
		}
		if it.branchTo != nil && top.ID == it.branchTo.ID {
			it.branchTo = nil
		}
		qs, err := it.questionsForBlock(top)
		if err != nil {
			return nil, err
		}
		it.questions = qs[1:]
		return qs[0], nil
	}
	return nil, ErrTerminated
}

// Answer records the respondent's selection for q. If q is a branch
// question, the destination block of the first selected option becomes the
// pending branch target. Answering the same question twice is an error.
func (it *Interpreter) Answer(q *model.Question, selection []*model.Option, freetext string) error {
	if _, dup := it.responses[q.ID]; dup {
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, q.ID)
	}
	idx, seen := it.seenIndex[q.ID]
	if !seen {
		return fmt.Errorf("%w: question %s answered before being served", model.ErrAPIMisuse, q.ID)
	}
	qr := &model.QuestionResponse{Question: q, Text: freetext, IndexSeen: idx}
	for i, o := range selection {
		qr.Opts = append(qr.Opts, model.OptTuple{Option: o, Index: i})
	}
	it.responses[q.ID] = qr

	if q.IsBranchQuestion() {
		if len(selection) == 0 {
			return fmt.Errorf("%w: branch question %s answered with no selection", model.ErrAPIMisuse, q.ID)
		}
		dest, err := q.BranchDestination(selection[0])
		if err != nil {
			return err
		}
		it.branchTo = dest
	}
	return nil
}

// Terminated reports whether both the pending-question queue and the
// pending-top-level-block queue are empty.
func (it *Interpreter) Terminated() bool {
	return len(it.topLevel) == 0 && len(it.questions) == 0
}

// Response assembles the survey response recorded so far. Responses are
// ordered by the position in which their questions were shown.
func (it *Interpreter) Response() *model.SurveyResponse {
	sr := &model.SurveyResponse{
		ID:               uuid.NewString(),
		KnownValidity:    model.ValidityMaybe,
		ComputedValidity: model.ValidityMaybe,
	}
	for _, qr := range it.responses {
		sr.Responses = append(sr.Responses, qr)
	}
	sr.Responses = sr.AllResponses()
	return sr
}

// questionsForBlock flattens a block into presentation order: direct
// questions and child blocks are interleaved by the asymmetric shuffle, an
// ALL-paradigm child contributes one uniformly drawn wording variant, and
// every other child block is expanded recursively.
func (it *Interpreter) questionsForBlock(b *model.Block) ([]*model.Question, error) {
	if b.Size() == 0 {
		return nil, fmt.Errorf("%w: block %s has no contents", model.ErrStructural, b.ID)
	}
	if b.Paradigm == model.BranchAll {
		if len(b.Questions) == 0 {
			return nil, fmt.Errorf("%w: ALL block %s has no questions", model.ErrStructural, b.ID)
		}
		return []*model.Question{b.Questions[it.rng.Intn(len(b.Questions))]}, nil
	}
	var out []*model.Question
	for _, n := range shuffledContents(b, it.rng) {
		switch {
		case n.question != nil:
			out = append(out, n.question)
		default:
			sub, err := it.questionsForBlock(n.block)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: block %s expanded to no questions", model.ErrStructural, b.ID)
	}
	return out, nil
}
