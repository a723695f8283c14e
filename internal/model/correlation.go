package model

import "time"

// TestKind identifies which statistical test produced a correlation value.
type TestKind string

const (
	// TestRho is Spearman's rank correlation.
	TestRho TestKind = "RHO"
	// TestChi is Pearson's chi-squared statistic over a contingency table.
	TestChi TestKind = "CHI"
	// TestU is the Mann-Whitney rank-sum test.
	TestU TestKind = "U"
	// TestV is Cramér's V nominal association strength.
	TestV TestKind = "V"
)

// CorrelationStruct is the result of one statistical test between two
// questions.
type CorrelationStruct struct {
	Test      TestKind `json:"test"`
	Value     float64  `json:"value"`
	PValue    float64  `json:"pValue,omitempty"`
	QuestionA string   `json:"questionA"`
	QuestionB string   `json:"questionB"`
	SampleA   int      `json:"sampleA"`
	SampleB   int      `json:"sampleB"`
}

// BiasEntry is one pairwise comparison in a bias report.
type BiasEntry struct {
	BlockID string            `json:"blockId,omitempty"`
	Corr    CorrelationStruct `json:"corr"`
}

// BiasReport collects the pairwise comparisons of one bias search.
type BiasReport struct {
	SurveyID    string      `json:"surveyId"`
	Kind        string      `json:"kind"`
	Alpha       float64     `json:"alpha"`
	Entries     []BiasEntry `json:"entries"`
	GeneratedAt time.Time   `json:"generatedAt"`
}
