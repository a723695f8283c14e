package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"surveyqc/internal/model"
)

// ResponseRepo persists collected and simulated survey responses. Every run
// of a survey keeps its full response set here; the QC engine reads it back
// and writes computed scores and validity labels.
type ResponseRepo interface {
	Create(ctx context.Context, doc *model.StoredResponse) error
	CreateMany(ctx context.Context, docs []*model.StoredResponse) error
	GetBySurveyID(ctx context.Context, surveyID string) ([]*model.StoredResponse, error)
	Update(ctx context.Context, doc *model.StoredResponse) error
	DeleteBySurveyID(ctx context.Context, surveyID string) error
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a response repository over the given database.
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{collection: db.Collection("responses")}
}

func (r *responseRepo) Create(ctx context.Context, doc *model.StoredResponse) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *responseRepo) CreateMany(ctx context.Context, docs []*model.StoredResponse) error {
	if len(docs) == 0 {
		return nil
	}
	now := time.Now()
	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		batch[i] = doc
	}
	_, err := r.collection.InsertMany(ctx, batch)
	return err
}

func (r *responseRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]*model.StoredResponse, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.StoredResponse
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *responseRepo) Update(ctx context.Context, doc *model.StoredResponse) error {
	update := bson.M{"$set": bson.M{
		"score":            doc.Score,
		"threshold":        doc.Threshold,
		"knownValidity":    doc.KnownValidity,
		"computedValidity": doc.ComputedValidity,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	return err
}

func (r *responseRepo) DeleteBySurveyID(ctx context.Context, surveyID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	return err
}
