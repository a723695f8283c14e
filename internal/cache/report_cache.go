package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyqc/internal/model"
)

// ReportCache handles Redis caching of QC outputs. Classification and bias
// reports are expensive (bootstrap resampling, pairwise statistics) and get
// re-requested for the same response set, so they are stored as JSON with a
// TTL. A miss returns nil without error.
type ReportCache interface {
	GetClassification(ctx context.Context, surveyID string, classifier model.Classifier) (*model.ClassificationReport, error)
	SetClassification(ctx context.Context, report *model.ClassificationReport) error

	GetStats(ctx context.Context, surveyID string) (*model.SurveyStats, error)
	SetStats(ctx context.Context, stats *model.SurveyStats) error

	GetBias(ctx context.Context, surveyID, kind string) (*model.BiasReport, error)
	SetBias(ctx context.Context, report *model.BiasReport) error

	Invalidate(ctx context.Context, surveyID string) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new report cache.
func NewReportCache(client *redis.Client) ReportCache {
	return &reportCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *reportCache) classificationKey(surveyID string, classifier model.Classifier) string {
	return fmt.Sprintf("qc:%s:report:%s", surveyID, classifier)
}

func (c *reportCache) statsKey(surveyID string) string {
	return fmt.Sprintf("qc:%s:stats", surveyID)
}

func (c *reportCache) biasKey(surveyID, kind string) string {
	return fmt.Sprintf("qc:%s:bias:%s", surveyID, kind)
}

func (c *reportCache) GetClassification(ctx context.Context, surveyID string, classifier model.Classifier) (*model.ClassificationReport, error) {
	data, err := c.client.Get(ctx, c.classificationKey(surveyID, classifier)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.ClassificationReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *reportCache) SetClassification(ctx context.Context, report *model.ClassificationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.classificationKey(report.SurveyID, report.Classifier), data, c.ttl).Err()
}

func (c *reportCache) GetStats(ctx context.Context, surveyID string) (*model.SurveyStats, error) {
	data, err := c.client.Get(ctx, c.statsKey(surveyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats model.SurveyStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *reportCache) SetStats(ctx context.Context, stats *model.SurveyStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.statsKey(stats.SurveyID), data, c.ttl).Err()
}

func (c *reportCache) GetBias(ctx context.Context, surveyID, kind string) (*model.BiasReport, error) {
	data, err := c.client.Get(ctx, c.biasKey(surveyID, kind)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.BiasReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *reportCache) SetBias(ctx context.Context, report *model.BiasReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.biasKey(report.SurveyID, report.Kind), data, c.ttl).Err()
}

func (c *reportCache) Invalidate(ctx context.Context, surveyID string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("qc:%s:*", surveyID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
