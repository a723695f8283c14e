package model

import "time"

// Classifier selects a validity decision policy.
type Classifier string

const (
	ClassifierEntropy       Classifier = "entropy"
	ClassifierLogLikelihood Classifier = "loglikelihood"
	ClassifierLPO           Classifier = "lpo"
	ClassifierCluster       Classifier = "cluster"
	ClassifierStacked       Classifier = "stacked"
	ClassifierAll           Classifier = "all"
)

// ClassificationStruct is the per-response classification outcome.
type ClassificationStruct struct {
	ResponseID    string     `json:"responseId" bson:"responseId"`
	Classifier    Classifier `json:"classifier" bson:"classifier"`
	QuestionCount int        `json:"questionCount" bson:"questionCount"`
	Score         float64    `json:"score" bson:"score"`
	Threshold     float64    `json:"threshold" bson:"threshold"`
	Valid         bool       `json:"valid" bson:"valid"`
}

// ClassificationReport aggregates one classification run over a survey's
// response set.
type ClassificationReport struct {
	SurveyID    string                 `json:"surveyId" bson:"surveyId"`
	Classifier  Classifier             `json:"classifier" bson:"classifier"`
	Alpha       float64                `json:"alpha" bson:"alpha"`
	Smoothing   bool                   `json:"smoothing" bson:"smoothing"`
	Valid       int                    `json:"valid" bson:"valid"`
	Invalid     int                    `json:"invalid" bson:"invalid"`
	Results     []ClassificationStruct `json:"results" bson:"results"`
	GeneratedAt time.Time              `json:"generatedAt" bson:"generatedAt"`
}

// BreakoffByPosition maps the last-answered 0-based position to how many
// respondents stopped there.
type BreakoffByPosition map[int]int

// BreakoffByQuestion maps the last-answered question ID to how many
// respondents stopped there.
type BreakoffByQuestion map[string]int

// BreakoffReport bundles both breakoff aggregates for a survey.
type BreakoffReport struct {
	SurveyID    string             `json:"surveyId"`
	ByPosition  BreakoffByPosition `json:"byPosition"`
	ByQuestion  BreakoffByQuestion `json:"byQuestion"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// SurveyStats holds whole-survey summary statistics.
type SurveyStats struct {
	SurveyID       string    `json:"surveyId"`
	PathCount      int       `json:"pathCount"`
	MinPathLength  int       `json:"minPathLength"`
	MaxPathLength  int       `json:"maxPathLength"`
	AvgPathLength  float64   `json:"avgPathLength"`
	Entropy        float64   `json:"entropy"`
	MaxEntropy     float64   `json:"maxEntropy"`
	ResponseCount  int       `json:"responseCount"`
	SimulationRuns int       `json:"simulationRuns"`
	GeneratedAt    time.Time `json:"generatedAt"`
}
