package interpreter

import (
	"math/rand"

	"surveyqc/internal/model"
)

// node is one direct content item of a block: either a question or a child
// block, never both.
type node struct {
	question *model.Question
	block    *model.Block
}

// shuffledContents interleaves a block's direct questions and child blocks.
// All slot indices are permuted uniformly; the first len(questions) permuted
// slots go to questions (in original order) and the next slots to the
// randomizable child blocks (in original order). The remaining slots are
// filled left to right by the fixed child blocks, so fixed blocks keep their
// relative order while everything else floats.
func shuffledContents(b *model.Block, rng *rand.Rand) []node {
	var randomizable, fixed []*model.Block
	for _, sb := range b.SubBlocks {
		if sb.IsRandomized() {
			randomizable = append(randomizable, sb)
		} else {
			fixed = append(fixed, sb)
		}
	}

	size := b.Size()
	slots := make([]node, size)
	indices := rng.Perm(size)

	for i, q := range b.Questions {
		slots[indices[i]] = node{question: q}
	}
	for i, sb := range randomizable {
		slots[indices[len(b.Questions)+i]] = node{block: sb}
	}
	next := 0
	for i := range slots {
		if slots[i].question == nil && slots[i].block == nil {
			slots[i] = node{block: fixed[next]}
			next++
		}
	}
	return slots
}

// shuffleTopLevel applies the same asymmetric policy to the survey's
// top-level blocks: randomizable blocks land on uniformly random slots while
// fixed blocks keep their relative order in the remaining ones.
func shuffleTopLevel(blocks []*model.Block, rng *rand.Rand) []*model.Block {
	var randomizable, fixed []*model.Block
	for _, b := range blocks {
		if b.IsRandomized() {
			randomizable = append(randomizable, b)
		} else {
			fixed = append(fixed, b)
		}
	}
	slots := make([]*model.Block, len(blocks))
	indices := rng.Perm(len(blocks))
	for i, b := range randomizable {
		slots[indices[i]] = b
	}
	next := 0
	for i := range slots {
		if slots[i] == nil {
			slots[i] = fixed[next]
			next++
		}
	}
	return slots
}
