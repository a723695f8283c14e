package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyqc/config"
	"surveyqc/internal/cache"
	"surveyqc/internal/interpreter"
	"surveyqc/internal/model"
	"surveyqc/internal/repository"
	"surveyqc/internal/service"
)

// Seeds a demo survey, simulates a respondent population against it and runs
// the full QC pipeline, printing each report. Useful for smoke-testing the
// engine end to end without the HTTP surface.
func main() {
	n := flag.Int("n", 500, "number of simulated respondents")
	adversary := flag.String("adversary", "uniform", "profile: uniform, first or last")
	classifier := flag.String("classifier", "loglikelihood", "policy: entropy, loglikelihood, lpo, cluster, stacked or all")
	alpha := flag.Float64("alpha", 0.05, "significance level / cluster count")
	smoothing := flag.Bool("smoothing", false, "apply Laplace smoothing to option frequencies")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	qcSvc := service.NewQCService(
		repository.NewSurveyRepo(db),
		repository.NewResponseRepo(db),
		cache.NewReportCache(rdb),
		cfg,
	)

	doc := demoSurvey()
	if err := qcSvc.RegisterSurvey(ctx, doc); err != nil {
		log.Fatalf("Failed to register survey: %v", err)
	}
	log.Printf("Registered survey %s (%s)", doc.ID, doc.Name)

	adv := interpreter.AdversaryUniform
	switch *adversary {
	case "uniform":
	case "first":
		adv = interpreter.AdversaryFirst
	case "last":
		adv = interpreter.AdversaryLast
	default:
		log.Fatalf("Unknown adversary profile %q", *adversary)
	}

	count, err := qcSvc.Simulate(ctx, doc.ID, *n, adv)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	log.Printf("Simulated %d %s respondents", count, *adversary)

	stats, err := qcSvc.Stats(ctx, doc.ID)
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}
	log.Printf("Paths: %d, length min/avg/max: %d/%.2f/%d",
		stats.PathCount, stats.MinPathLength, stats.AvgPathLength, stats.MaxPathLength)
	log.Printf("Entropy: %.4f (max possible %.4f)", stats.Entropy, stats.MaxEntropy)

	report, err := qcSvc.Classify(ctx, doc.ID, model.Classifier(*classifier), *alpha, *smoothing)
	if err != nil {
		log.Fatalf("Classification failed: %v", err)
	}
	log.Printf("Classifier %s: %d valid, %d invalid of %d responses",
		report.Classifier, report.Valid, report.Invalid, len(report.Results))

	for _, kind := range []string{"wording", "order"} {
		bias, err := qcSvc.Bias(ctx, doc.ID, kind, *alpha)
		if err != nil {
			log.Fatalf("%s bias failed: %v", kind, err)
		}
		log.Printf("%s bias: %d comparisons", kind, len(bias.Entries))
		for _, e := range bias.Entries {
			log.Printf("  %s vs %s: %s=%.4f p=%.4f",
				e.Corr.QuestionA, e.Corr.QuestionB, e.Corr.Test, e.Corr.Value, e.Corr.PValue)
		}
	}

	breakoff, err := qcSvc.Breakoff(ctx, doc.ID)
	if err != nil {
		log.Fatalf("Breakoff failed: %v", err)
	}
	log.Printf("Breakoff positions recorded: %d", len(breakoff.ByPosition))
	log.Println("Done")
}

func opts(qid string, questionRow int, texts ...string) []model.Option {
	out := make([]model.Option, len(texts))
	for i, t := range texts {
		out[i] = model.Option{ID: fmt.Sprintf("%s_o%d", qid, i+1), Text: t, SourceRow: questionRow + 1 + i}
	}
	return out
}

// demoSurvey builds a survey exercising every engine feature: a branching
// screener, an ALL-paradigm variant block, a randomizable block and an
// ordered rating question.
func demoSurvey() *model.SurveyDoc {
	return &model.SurveyDoc{
		ID:        "demo_phone_survey",
		Name:      "Smartphone Feedback",
		CreatedAt: time.Now(),
		Blocks: []model.BlockDoc{
			{
				ID: "b1", Index: 1, Paradigm: "ONE",
				Questions: []model.QuestionDoc{
					{
						ID: "q_owner", Text: "Do you own a smartphone?",
						SourceRow: 1, Exclusive: true,
						Options: opts("q_owner", 1, "Yes", "No"),
						BranchMap: map[string]string{
							"q_owner_o1": "b2",
							"q_owner_o2": "b4",
						},
					},
				},
			},
			{
				ID: "b2", Index: 2, Paradigm: "ALL",
				Questions: []model.QuestionDoc{
					{
						ID: "q_sat_a", Text: "How satisfied are you with your phone?",
						SourceRow: 2, Exclusive: true, Ordered: true,
						Options: opts("q_sat_a", 2, "Very unsatisfied", "Unsatisfied", "Neutral", "Satisfied", "Very satisfied"),
					},
					{
						ID: "q_sat_b", Text: "Overall, how happy are you with your phone?",
						SourceRow: 2, Exclusive: true, Ordered: true,
						Options: opts("q_sat_b", 2, "Very unhappy", "Unhappy", "Neutral", "Happy", "Very happy"),
					},
				},
			},
			{
				ID: "b3", Index: 3, Randomizable: true,
				Questions: []model.QuestionDoc{
					{
						ID: "q_features", Text: "Which features do you use daily?",
						SourceRow: 3, Exclusive: false, Randomize: true,
						Options: opts("q_features", 3, "Camera", "Maps", "Music", "Payments"),
					},
				},
			},
			{
				ID: "b4", Index: 4,
				Questions: []model.QuestionDoc{
					{
						ID: "q_brand", Text: "Which brand would you consider next?",
						SourceRow: 4, Exclusive: true, Randomize: true,
						Options: opts("q_brand", 4, "Apple", "Samsung", "Google", "Other"),
					},
					{
						ID: "q_comments", Text: "Any other comments?",
						SourceRow: 5, Freetext: true,
					},
				},
			},
		},
	}
}
