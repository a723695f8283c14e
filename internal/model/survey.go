package model

import (
	"fmt"
	"strings"
)

// BranchParadigm controls how a block's contents are presented.
type BranchParadigm string

const (
	// BranchNone blocks have no branching behavior.
	BranchNone BranchParadigm = "NONE"
	// BranchOne blocks contain a branch question; the respondent's answer
	// selects the next top-level block.
	BranchOne BranchParadigm = "ONE"
	// BranchAll blocks hold mutually exclusive wording variants of one
	// question; exactly one is drawn at random per respondent.
	BranchAll BranchParadigm = "ALL"
)

const customQuestionPrefix = "custom"

// Option is a single answer choice. SourceRow is provenance from the survey
// definition and is used to align options across wording variants.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	SourceRow int    `json:"sourceRow"`
}

// Question is an immutable node of the survey tree.
type Question struct {
	ID        string
	Text      string
	Options   []*Option
	Exclusive bool
	Ordered   bool
	Randomize bool
	Freetext  bool
	SourceRow int

	// BranchMap routes a selected option ID to a destination block.
	BranchMap map[string]*Block

	// Block is the immediate containing block, set by the survey builder.
	Block *Block
}

// IsBranchQuestion reports whether answering this question selects the next
// top-level block.
func (q *Question) IsBranchQuestion() bool {
	return len(q.BranchMap) > 0
}

// IsCustom reports whether this is a meta question (instructions, attention
// checks) excluded from content statistics.
func (q *Question) IsCustom() bool {
	return strings.HasPrefix(q.ID, customQuestionPrefix)
}

// BranchDestination resolves the branch target for a selected option.
func (q *Question) BranchDestination(o *Option) (*Block, error) {
	dest, ok := q.BranchMap[o.ID]
	if !ok {
		return nil, fmt.Errorf("question %s has no branch destination for option %s", q.ID, o.ID)
	}
	return dest, nil
}

// OptionByID returns the option with the given ID.
func (q *Question) OptionByID(id string) (*Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// RowOffset is the option's position relative to its question in the source
// definition. Variant questions align their options by equal offsets.
func (q *Question) RowOffset(o *Option) int {
	return o.SourceRow - q.SourceRow
}

// Variants returns the wording variants of this question. For a question
// inside an ALL-paradigm block these are all of the block's questions
// (including the receiver); otherwise the question is its own only variant.
func (q *Question) Variants() []*Question {
	if q.Block != nil && q.Block.Paradigm == BranchAll {
		return q.Block.Questions
	}
	return []*Question{q}
}

// EquivalentAnswerVariants returns the options of every wording variant that
// sit at the same row offset as o does under q.
func (q *Question) EquivalentAnswerVariants(o *Option) []*Option {
	offset := q.RowOffset(o)
	var equivalent []*Option
	for _, variant := range q.Variants() {
		for _, vo := range variant.Options {
			if variant.RowOffset(vo) == offset {
				equivalent = append(equivalent, vo)
			}
		}
	}
	return equivalent
}

// Block is an ordered container of questions and child blocks.
type Block struct {
	ID           string
	Index        int
	Questions    []*Question
	SubBlocks    []*Block
	Parent       *Block
	Randomizable bool
	Paradigm     BranchParadigm

	// BranchQ is the branch question for ONE-paradigm blocks.
	BranchQ *Question
}

// IsRandomized reports whether the block floats freely among its siblings.
func (b *Block) IsRandomized() bool {
	return b.Randomizable
}

// HasBranchQuestion reports whether traversal out of this block depends on an
// answer.
func (b *Block) HasBranchQuestion() bool {
	return b.BranchQ != nil
}

// BranchDestinations returns the distinct destination blocks reachable from
// the branch question's options, in option order.
func (b *Block) BranchDestinations() []*Block {
	if b.BranchQ == nil {
		return nil
	}
	seen := make(map[string]bool)
	var dests []*Block
	for _, o := range b.BranchQ.Options {
		dest, ok := b.BranchQ.BranchMap[o.ID]
		if !ok || seen[dest.ID] {
			continue
		}
		seen[dest.ID] = true
		dests = append(dests, dest)
	}
	return dests
}

// FarthestContainingBlock walks up to the top-level ancestor.
func (b *Block) FarthestContainingBlock() *Block {
	top := b
	for top.Parent != nil {
		top = top.Parent
	}
	return top
}

// Size is the number of direct questions plus direct child blocks.
func (b *Block) Size() int {
	return len(b.Questions) + len(b.SubBlocks)
}

// AllQuestions returns every question in the block and its descendants.
func (b *Block) AllQuestions() []*Question {
	qs := append([]*Question{}, b.Questions...)
	for _, sb := range b.SubBlocks {
		qs = append(qs, sb.AllQuestions()...)
	}
	return qs
}

// Survey is the immutable survey tree. It is constructed once (by Build on a
// SurveyDoc or programmatically followed by Link) and never mutated afterwards.
type Survey struct {
	ID             string
	Name           string
	TopLevelBlocks []*Block

	// Questions is every question in the survey, in source order.
	Questions []*Question

	questionsByID map[string]*Question
	blocksByID    map[string]*Block
}

// QuestionByID looks up a question anywhere in the survey.
func (s *Survey) QuestionByID(id string) (*Question, bool) {
	q, ok := s.questionsByID[id]
	return q, ok
}

// BlockByID looks up a block anywhere in the survey.
func (s *Survey) BlockByID(id string) (*Block, bool) {
	b, ok := s.blocksByID[id]
	return b, ok
}

// AllBlocks returns every block in the survey, depth-first.
func (s *Survey) AllBlocks() []*Block {
	var blocks []*Block
	var walk func(b *Block)
	walk = func(b *Block) {
		blocks = append(blocks, b)
		for _, sb := range b.SubBlocks {
			walk(sb)
		}
	}
	for _, b := range s.TopLevelBlocks {
		walk(b)
	}
	return blocks
}

// PartitionTopLevel splits the top-level blocks into randomizable and fixed,
// preserving original order within each group.
func (s *Survey) PartitionTopLevel() (randomizable, fixed []*Block) {
	for _, b := range s.TopLevelBlocks {
		if b.IsRandomized() {
			randomizable = append(randomizable, b)
		} else {
			fixed = append(fixed, b)
		}
	}
	return randomizable, fixed
}

// Link finalizes a programmatically built survey: it sets parent and
// containing-block pointers, collects questions, builds lookup maps and
// validates structural invariants. It must be called exactly once before the
// survey is used.
func (s *Survey) Link() error {
	if len(s.TopLevelBlocks) == 0 {
		return fmt.Errorf("%w: survey %s has no top-level blocks", ErrStructural, s.ID)
	}
	s.questionsByID = make(map[string]*Question)
	s.blocksByID = make(map[string]*Block)
	s.Questions = nil

	var walk func(b *Block, parent *Block) error
	walk = func(b *Block, parent *Block) error {
		b.Parent = parent
		if _, dup := s.blocksByID[b.ID]; dup {
			return fmt.Errorf("%w: duplicate block id %s", ErrStructural, b.ID)
		}
		s.blocksByID[b.ID] = b
		if b.Size() == 0 {
			return fmt.Errorf("%w: block %s has no contents", ErrStructural, b.ID)
		}
		if b.Paradigm == BranchAll && len(b.Questions) == 0 {
			return fmt.Errorf("%w: ALL block %s has no questions", ErrStructural, b.ID)
		}
		for _, q := range b.Questions {
			q.Block = b
			if _, dup := s.questionsByID[q.ID]; dup {
				return fmt.Errorf("%w: duplicate question id %s", ErrStructural, q.ID)
			}
			s.questionsByID[q.ID] = q
			s.Questions = append(s.Questions, q)
			if q.Freetext && len(q.Options) > 0 {
				return fmt.Errorf("%w: freetext question %s has options", ErrStructural, q.ID)
			}
			if q.IsBranchQuestion() {
				b.BranchQ = q
			}
		}
		for _, sb := range b.SubBlocks {
			if err := walk(sb, b); err != nil {
				return err
			}
		}
		return nil
	}
	for _, b := range s.TopLevelBlocks {
		if err := walk(b, nil); err != nil {
			return err
		}
	}
	return nil
}
