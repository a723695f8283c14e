package qc

import (
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"

	"surveyqc/internal/model"
)

// GetDag enumerates every traversal through an ordered list of blocks. A
// block with a branch question fans out to each distinct destination still in
// scope; any other block is mandatory and prepended to every tail traversal.
func GetDag(blocks []*model.Block) [][]*model.Block {
	sorted := append([]*model.Block{}, blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	return dag(sorted)
}

func dag(blocks []*model.Block) [][]*model.Block {
	if len(blocks) == 0 {
		return [][]*model.Block{{}}
	}
	head, tail := blocks[0], blocks[1:]
	if head.HasBranchQuestion() {
		var traversals [][]*model.Block
		for _, dest := range head.BranchDestinations() {
			idx := -1
			for i, b := range tail {
				if b.ID == dest.ID {
					idx = i
					break
				}
			}
			if idx < 0 {
				// destination outside the remaining scope
				continue
			}
			for _, t := range dag(tail[idx:]) {
				traversals = append(traversals, append([]*model.Block{head}, t...))
			}
		}
		return traversals
	}
	var traversals [][]*model.Block
	for _, t := range dag(tail) {
		traversals = append(traversals, append([]*model.Block{head}, t...))
	}
	return traversals
}

// GetPaths enumerates all block-level paths through the survey. Top-level
// randomizable blocks are always shown (just reordered), so they are added to
// every path.
func GetPaths(s *model.Survey) []*model.Path {
	randomizable, fixed := s.PartitionTopLevel()
	traversals := GetDag(fixed)
	log.Printf("computed DAG with %d traversals through fixed blocks of survey %s", len(traversals), s.ID)

	if len(traversals) == 1 && len(traversals[0]) == 0 {
		return []*model.Path{model.NewPath(randomizable...)}
	}
	var paths []*model.Path
	for _, t := range traversals {
		if len(t) == 0 {
			continue
		}
		p := model.NewPath(t...)
		for _, b := range randomizable {
			p.Add(b)
		}
		paths = append(paths, p)
	}
	return paths
}

// ResponsePath returns the top-level blocks the respondent traversed.
func ResponsePath(sr *model.SurveyResponse) *model.Path {
	p := model.NewPath()
	for _, qr := range sr.NonCustomResponses() {
		if qr.Question.Block != nil {
			p.Add(qr.Question.Block.FarthestContainingBlock())
		}
	}
	return p
}

// FrequenciesForPaths buckets responses by the enumerated path that covers
// their traversed blocks. A response matching no path is a structural
// inconsistency.
func FrequenciesForPaths(paths []*model.Path, responses []*model.SurveyResponse) (map[*model.Path][]*model.SurveyResponse, error) {
	buckets := make(map[*model.Path][]*model.SurveyResponse, len(paths))
	for _, p := range paths {
		buckets[p] = nil
	}
	for _, sr := range responses {
		traversed := ResponsePath(sr)
		found := false
		for _, p := range paths {
			if p.ContainsAll(traversed) {
				buckets[p] = append(buckets[p], sr)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: response %s matches no enumerated path", model.ErrStructural, sr.ID)
		}
	}
	return buckets, nil
}

// PathQuestions returns the questions a respondent on this path would see:
// all questions of every block, except that an ALL-paradigm block contributes
// exactly one of its wording variants.
func PathQuestions(p *model.Path, rng *rand.Rand) []*model.Question {
	var questions []*model.Question
	var walk func(b *model.Block)
	walk = func(b *model.Block) {
		if b.Paradigm == model.BranchAll {
			if len(b.Questions) > 0 {
				questions = append(questions, b.Questions[rng.Intn(len(b.Questions))])
			}
		} else {
			questions = append(questions, b.Questions...)
		}
		for _, sb := range b.SubBlocks {
			walk(sb)
		}
	}
	for _, b := range p.Blocks() {
		walk(b)
	}
	return questions
}

// removeFreetext filters out freetext questions, which have no options and
// are excluded from exclusivity-dependent computations.
func removeFreetext(questions []*model.Question) []*model.Question {
	var out []*model.Question
	for _, q := range questions {
		if !q.Freetext {
			out = append(out, q)
		}
	}
	return out
}

// SurveyEntropy computes the empirical base-2 entropy of the response set
// over answer variants per path. Fewer than 2 responses yield 0.
func SurveyEntropy(s *model.Survey, responses []*model.SurveyResponse) (float64, error) {
	if len(responses) < 2 {
		return 0, nil
	}
	paths := GetPaths(s)
	buckets, err := FrequenciesForPaths(paths, responses)
	if err != nil {
		return 0, err
	}
	total := float64(len(responses))
	ent := 0.0
	for _, q := range removeFreetext(s.Questions) {
		for _, o := range q.Options {
			variants := q.EquivalentAnswerVariants(o)
			for _, p := range paths {
				count := 0.0
				for _, sr := range buckets[p] {
					if sr.ContainsAnswer(variants) {
						count++
					}
				}
				prob := count / total
				ent += prob * log2(prob)
			}
		}
	}
	return -ent, nil
}

// maxEntropy is the number of bits needed to represent a uniformly random
// answer to each question in the list.
func maxEntropy(questions []*model.Question) float64 {
	ent := 0.0
	for _, q := range questions {
		if n := len(q.Options); n > 0 {
			ent += log2(float64(n))
		}
	}
	return ent
}

// MaxPossibleEntropy is the maximum entropy over all paths through the
// survey.
func MaxPossibleEntropy(s *model.Survey, rng *rand.Rand) float64 {
	maxEnt := 0.0
	for _, p := range GetPaths(s) {
		if ent := maxEntropy(PathQuestions(p, rng)); ent > maxEnt {
			maxEnt = ent
		}
	}
	log.Printf("maximum possible entropy for survey %s: %f", s.ID, maxEnt)
	return maxEnt
}

// MinimumPathLength is the smallest number of questions any path shows.
func MinimumPathLength(s *model.Survey, rng *rand.Rand) int {
	min := -1
	for _, p := range GetPaths(s) {
		if n := len(PathQuestions(p, rng)); min < 0 || n < min {
			min = n
		}
	}
	return min
}

// MaximumPathLength is the largest number of questions any path shows.
func MaximumPathLength(s *model.Survey, rng *rand.Rand) int {
	max := 0
	for _, p := range GetPaths(s) {
		if n := len(PathQuestions(p, rng)); n > max {
			max = n
		}
	}
	return max
}

// AveragePathLength estimates the expected number of questions shown by
// simulating runs uniform random respondents.
func AveragePathLength(s *model.Survey, runs int, rng *rand.Rand) (float64, error) {
	if runs <= 0 {
		return 0, fmt.Errorf("average path length needs at least one run, got %d", runs)
	}
	lengths := make([]float64, runs)
	for i := 0; i < runs; i++ {
		rr, err := interpreterRun(s, rng)
		if err != nil {
			return 0, err
		}
		lengths[i] = float64(len(rr.NonCustomResponses()))
	}
	return stats.Mean(lengths)
}
