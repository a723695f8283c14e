package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"surveyqc/config"
	"surveyqc/internal/cache"
	"surveyqc/internal/interpreter"
	"surveyqc/internal/model"
	"surveyqc/internal/qc"
	"surveyqc/internal/repository"
)

// QCService runs simulations and quality control over stored surveys and
// their responses. Each classification call uses a fresh QC session so that
// bootstrap caches never leak between surveys or response sets.
type QCService struct {
	surveys   repository.SurveyRepo
	responses repository.ResponseRepo
	reports   cache.ReportCache

	bootstrapIterations int
	simulationRuns      int
}

// NewQCService creates the QC orchestration service.
func NewQCService(
	surveys repository.SurveyRepo,
	responses repository.ResponseRepo,
	reports cache.ReportCache,
	cfg *config.Config,
) *QCService {
	return &QCService{
		surveys:             surveys,
		responses:           responses,
		reports:             reports,
		bootstrapIterations: cfg.BootstrapIterations,
		simulationRuns:      cfg.SimulationRuns,
	}
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// LoadSurvey fetches a survey document and builds the immutable tree.
func (s *QCService) LoadSurvey(ctx context.Context, surveyID string) (*model.Survey, error) {
	doc, err := s.surveys.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("survey %s not found", surveyID)
	}
	return doc.Build()
}

// RegisterSurvey stores a survey document produced by the external loader.
func (s *QCService) RegisterSurvey(ctx context.Context, doc *model.SurveyDoc) error {
	if _, err := doc.Build(); err != nil {
		return err
	}
	return s.surveys.Create(ctx, doc)
}

// ListSurveys returns all registered survey documents.
func (s *QCService) ListSurveys(ctx context.Context) ([]*model.SurveyDoc, error) {
	return s.surveys.List(ctx)
}

// Simulate runs n random respondents through the survey and persists their
// responses. Cached reports for the survey are invalidated since the
// response set changed.
func (s *QCService) Simulate(ctx context.Context, surveyID string, n int, adv interpreter.AdversaryType) (int, error) {
	survey, err := s.LoadSurvey(ctx, surveyID)
	if err != nil {
		return 0, err
	}
	responses, err := qc.SimulateRespondents(survey, n, adv, newRNG())
	if err != nil {
		return 0, err
	}
	docs := make([]*model.StoredResponse, len(responses))
	for i, sr := range responses {
		docs[i] = model.NewStoredResponse(surveyID, sr)
	}
	if err := s.responses.CreateMany(ctx, docs); err != nil {
		return 0, err
	}
	if err := s.reports.Invalidate(ctx, surveyID); err != nil {
		log.Printf("failed to invalidate cached reports for survey %s: %v", surveyID, err)
	}
	log.Printf("simulated %d respondents for survey %s", n, surveyID)
	return len(docs), nil
}

func (s *QCService) loadResponses(ctx context.Context, survey *model.Survey) ([]*model.SurveyResponse, map[string]*model.StoredResponse, error) {
	docs, err := s.responses.GetBySurveyID(ctx, survey.ID)
	if err != nil {
		return nil, nil, err
	}
	restored := make([]*model.SurveyResponse, 0, len(docs))
	byID := make(map[string]*model.StoredResponse, len(docs))
	for _, doc := range docs {
		sr, err := doc.Restore(survey)
		if err != nil {
			return nil, nil, err
		}
		restored = append(restored, sr)
		byID[sr.ID] = doc
	}
	return restored, byID, nil
}

// Classify applies the selected policy to every stored response of the
// survey, writes scores and validity labels back to the store, and caches
// the aggregate report.
func (s *QCService) Classify(
	ctx context.Context,
	surveyID string,
	classifier model.Classifier,
	alpha float64,
	smoothing bool,
) (*model.ClassificationReport, error) {
	if cached, err := s.reports.GetClassification(ctx, surveyID, classifier); err != nil {
		log.Printf("report cache read failed for survey %s: %v", surveyID, err)
	} else if cached != nil && cached.Alpha == alpha && cached.Smoothing == smoothing {
		return cached, nil
	}

	survey, err := s.LoadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, byID, err := s.loadResponses(ctx, survey)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("survey %s has no responses to classify", surveyID)
	}

	session := qc.NewSession(newRNG(), s.bootstrapIterations)
	results, err := session.ClassifyResponses(survey, responses, classifier, smoothing, alpha)
	if err != nil {
		return nil, err
	}

	report := &model.ClassificationReport{
		SurveyID:    surveyID,
		Classifier:  classifier,
		Alpha:       alpha,
		Smoothing:   smoothing,
		Results:     results,
		GeneratedAt: time.Now(),
	}
	for _, res := range results {
		if res.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}

	for _, sr := range responses {
		doc, ok := byID[sr.ID]
		if !ok {
			continue
		}
		doc.Score = sr.Score
		doc.Threshold = sr.Threshold
		doc.ComputedValidity = sr.ComputedValidity
		if err := s.responses.Update(ctx, doc); err != nil {
			return nil, err
		}
	}

	if err := s.reports.SetClassification(ctx, report); err != nil {
		log.Printf("report cache write failed for survey %s: %v", surveyID, err)
	}
	return report, nil
}

// Stats computes (or returns cached) whole-survey summary statistics: path
// counts and lengths, empirical and maximum entropy.
func (s *QCService) Stats(ctx context.Context, surveyID string) (*model.SurveyStats, error) {
	if cached, err := s.reports.GetStats(ctx, surveyID); err != nil {
		log.Printf("stats cache read failed for survey %s: %v", surveyID, err)
	} else if cached != nil {
		return cached, nil
	}

	survey, err := s.LoadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, _, err := s.loadResponses(ctx, survey)
	if err != nil {
		return nil, err
	}

	rng := newRNG()
	avg, err := qc.AveragePathLength(survey, s.simulationRuns, rng)
	if err != nil {
		return nil, err
	}
	entropy, err := qc.SurveyEntropy(survey, responses)
	if err != nil {
		return nil, err
	}

	stats := &model.SurveyStats{
		SurveyID:       surveyID,
		PathCount:      len(qc.GetPaths(survey)),
		MinPathLength:  qc.MinimumPathLength(survey, rng),
		MaxPathLength:  qc.MaximumPathLength(survey, rng),
		AvgPathLength:  avg,
		Entropy:        entropy,
		MaxEntropy:     qc.MaxPossibleEntropy(survey, rng),
		ResponseCount:  len(responses),
		SimulationRuns: s.simulationRuns,
		GeneratedAt:    time.Now(),
	}
	if err := s.reports.SetStats(ctx, stats); err != nil {
		log.Printf("stats cache write failed for survey %s: %v", surveyID, err)
	}
	return stats, nil
}

// Bias runs the wording or order bias search over the stored responses.
func (s *QCService) Bias(ctx context.Context, surveyID, kind string, alpha float64) (*model.BiasReport, error) {
	if cached, err := s.reports.GetBias(ctx, surveyID, kind); err != nil {
		log.Printf("bias cache read failed for survey %s: %v", surveyID, err)
	} else if cached != nil && cached.Alpha == alpha {
		return cached, nil
	}

	survey, err := s.LoadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, _, err := s.loadResponses(ctx, survey)
	if err != nil {
		return nil, err
	}

	var report *model.BiasReport
	switch kind {
	case "wording":
		report, err = qc.WordingBias(survey, responses, alpha)
	case "order":
		report, err = qc.OrderBias(survey, responses, alpha)
	default:
		return nil, fmt.Errorf("unknown bias kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := s.reports.SetBias(ctx, report); err != nil {
		log.Printf("bias cache write failed for survey %s: %v", surveyID, err)
	}
	return report, nil
}

// Breakoff aggregates where respondents stopped answering.
func (s *QCService) Breakoff(ctx context.Context, surveyID string) (*model.BreakoffReport, error) {
	survey, err := s.LoadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, _, err := s.loadResponses(ctx, survey)
	if err != nil {
		return nil, err
	}
	return qc.BreakoffReport(surveyID, responses), nil
}
