package qc

import (
	"log"
	"math/rand"
	"sort"
	"time"

	"surveyqc/internal/interpreter"
	"surveyqc/internal/model"
)

// Order-bias sub-samples are inconclusive below this many observations or
// when their sizes are within 20% of each other.
const (
	minOrderSample = 5
	orderRatioLow  = 0.8
	orderRatioHigh = 1.2
)

// rankValue is an option's rank basis: its row offset under its question,
// shifted to start at 1.
func rankValue(q *model.Question, o *model.Option) float64 {
	return float64(q.RowOffset(o)) + 1
}

func firstAnswers(q *model.Question, responses []*model.SurveyResponse) []*model.Option {
	var answers []*model.Option
	for _, sr := range responses {
		if qr := sr.ResponseFor(q); qr != nil && len(qr.Opts) > 0 {
			answers = append(answers, qr.Opts[0].Option)
		}
	}
	return answers
}

// offsetColumns builds a column index over a question's option offsets.
func offsetColumns(q *model.Question) map[int]int {
	offsets := make([]int, 0, len(q.Options))
	for _, o := range q.Options {
		offsets = append(offsets, q.RowOffset(o))
	}
	sort.Ints(offsets)
	cols := make(map[int]int, len(offsets))
	for i, off := range offsets {
		cols[off] = i
	}
	return cols
}

// WordingBias compares every pair of wording variants within each
// ALL-paradigm block: Mann-Whitney U when both variants are ordered
// exclusive questions, otherwise chi-squared over a variant-by-option
// contingency table.
func WordingBias(s *model.Survey, responses []*model.SurveyResponse, alpha float64) (*model.BiasReport, error) {
	report := &model.BiasReport{
		SurveyID:    s.ID,
		Kind:        "wording",
		Alpha:       alpha,
		GeneratedAt: time.Now(),
	}
	for _, b := range s.AllBlocks() {
		if b.Paradigm != model.BranchAll {
			continue
		}
		variants := b.Questions
		for i := 0; i < len(variants); i++ {
			for j := i + 1; j < len(variants); j++ {
				q1, q2 := variants[i], variants[j]
				a1 := firstAnswers(q1, responses)
				a2 := firstAnswers(q2, responses)

				var corr model.CorrelationStruct
				if q1.Exclusive && q2.Exclusive && q1.Ordered && q2.Ordered {
					xs := make([]float64, len(a1))
					for k, o := range a1 {
						xs[k] = rankValue(q1, o)
					}
					ys := make([]float64, len(a2))
					for k, o := range a2 {
						ys[k] = rankValue(q2, o)
					}
					u, p := MannWhitneyU(xs, ys)
					corr = model.CorrelationStruct{Test: model.TestU, Value: u, PValue: p}
				} else {
					cols := offsetColumns(q1)
					table := make([][]int, 2)
					table[0] = make([]int, len(cols))
					table[1] = make([]int, len(cols))
					fill := func(row int, q *model.Question, answers []*model.Option) {
						for _, o := range answers {
							c, ok := cols[q.RowOffset(o)]
							if !ok {
								log.Printf("no aligned option for %s under variant %s; skipping observation", o.ID, q1.ID)
								continue
							}
							table[row][c]++
						}
					}
					fill(0, q1, a1)
					fill(1, q2, a2)
					corr = model.CorrelationStruct{Test: model.TestChi, Value: ChiSquared(table)}
				}
				corr.QuestionA = q1.ID
				corr.QuestionB = q2.ID
				corr.SampleA = len(a1)
				corr.SampleB = len(a2)
				report.Entries = append(report.Entries, model.BiasEntry{BlockID: b.ID, Corr: corr})
			}
		}
	}
	return report, nil
}

// OrderBias searches for order effects: for every ordered pair of exclusive
// questions answered together, q1's answers are split into those seen before
// q2 and those seen after, and the sub-samples are compared. Pairs with
// fewer than 5 observations on either side, or sub-samples within 20% of
// each other in size, are inconclusive and skipped.
func OrderBias(s *model.Survey, responses []*model.SurveyResponse, alpha float64) (*model.BiasReport, error) {
	report := &model.BiasReport{
		SurveyID:    s.ID,
		Kind:        "order",
		Alpha:       alpha,
		GeneratedAt: time.Now(),
	}
	questions := removeFreetext(s.Questions)
	for _, q1 := range questions {
		if !q1.Exclusive {
			continue
		}
		for _, q2 := range questions {
			if !q2.Exclusive || q1.ID == q2.ID {
				continue
			}
			// q1's answers when q1 was shown before q2, and when after
			var before, after []*model.Option
			for _, sr := range responses {
				qr1 := sr.ResponseFor(q1)
				qr2 := sr.ResponseFor(q2)
				if qr1 == nil || qr2 == nil || len(qr1.Opts) == 0 {
					continue
				}
				if qr1.IndexSeen < qr2.IndexSeen {
					before = append(before, qr1.Opts[0].Option)
				} else if qr1.IndexSeen > qr2.IndexSeen {
					after = append(after, qr1.Opts[0].Option)
				}
			}
			if len(before) < minOrderSample || len(after) < minOrderSample {
				continue
			}
			ratio := float64(len(before)) / float64(len(after))
			if ratio > orderRatioLow && ratio < orderRatioHigh {
				continue
			}

			var corr model.CorrelationStruct
			if q1.Ordered && q2.Ordered {
				xs := make([]float64, len(before))
				for k, o := range before {
					xs[k] = rankValue(q1, o)
				}
				ys := make([]float64, len(after))
				for k, o := range after {
					ys[k] = rankValue(q1, o)
				}
				u, p := MannWhitneyU(xs, ys)
				corr = model.CorrelationStruct{Test: model.TestU, Value: u, PValue: p}
			} else {
				cols := offsetColumns(q1)
				table := make([][]int, len(cols))
				for r := range table {
					table[r] = make([]int, 2)
				}
				for _, o := range before {
					table[cols[q1.RowOffset(o)]][0]++
				}
				for _, o := range after {
					table[cols[q1.RowOffset(o)]][1]++
				}
				corr = model.CorrelationStruct{Test: model.TestChi, Value: ChiSquared(table)}
			}
			corr.QuestionA = q1.ID
			corr.QuestionB = q2.ID
			corr.SampleA = len(before)
			corr.SampleB = len(after)
			report.Entries = append(report.Entries, model.BiasEntry{Corr: corr})
		}
	}
	return report, nil
}

// RandomCorrelations simulates sampleSize uniform random respondents and
// computes the pairwise correlation between every pair of exclusive
// questions: Spearman's rho when both are ordered, Cramér's V otherwise.
// The result is an empirical prior on false correlation at the intended
// sample size.
func RandomCorrelations(s *model.Survey, sampleSize int, rng *rand.Rand) (map[string]map[string]model.CorrelationStruct, error) {
	responses, err := SimulateRespondents(s, sampleSize, interpreter.AdversaryUniform, rng)
	if err != nil {
		return nil, err
	}

	corrs := make(map[string]map[string]model.CorrelationStruct)
	questions := removeFreetext(s.Questions)
	for _, q1 := range questions {
		if !q1.Exclusive {
			continue
		}
		for _, q2 := range questions {
			if !q2.Exclusive || q1.ID == q2.ID {
				continue
			}
			// paired observations from respondents who answered both
			var a1, a2 []*model.Option
			for _, sr := range responses {
				qr1 := sr.ResponseFor(q1)
				qr2 := sr.ResponseFor(q2)
				if qr1 == nil || qr2 == nil || len(qr1.Opts) == 0 || len(qr2.Opts) == 0 {
					continue
				}
				a1 = append(a1, qr1.Opts[0].Option)
				a2 = append(a2, qr2.Opts[0].Option)
			}

			var corr model.CorrelationStruct
			if q1.Ordered && q2.Ordered {
				xs := make([]float64, len(a1))
				ys := make([]float64, len(a2))
				for k := range a1 {
					xs[k] = rankValue(q1, a1[k])
					ys[k] = rankValue(q2, a2[k])
				}
				rho, err := SpearmansRho(xs, ys)
				if err != nil {
					return nil, err
				}
				corr = model.CorrelationStruct{Test: model.TestRho, Value: rho}
			} else {
				rows := offsetColumns(q1)
				cols := offsetColumns(q2)
				table := make([][]int, len(rows))
				for r := range table {
					table[r] = make([]int, len(cols))
				}
				for k := range a1 {
					table[rows[q1.RowOffset(a1[k])]][cols[q2.RowOffset(a2[k])]]++
				}
				corr = model.CorrelationStruct{Test: model.TestV, Value: CramersV(table)}
			}
			corr.QuestionA = q1.ID
			corr.QuestionB = q2.ID
			corr.SampleA = len(a1)
			corr.SampleB = len(a2)
			if corrs[q1.ID] == nil {
				corrs[q1.ID] = make(map[string]model.CorrelationStruct)
			}
			corrs[q1.ID][q2.ID] = corr
		}
	}
	return corrs, nil
}
