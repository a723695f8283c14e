package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"surveyqc/internal/model"
)

// SurveyRepo persists survey documents produced by the external loader.
type SurveyRepo interface {
	Create(ctx context.Context, doc *model.SurveyDoc) error
	Get(ctx context.Context, id string) (*model.SurveyDoc, error)
	List(ctx context.Context) ([]*model.SurveyDoc, error)
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a survey repository over the given database.
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{collection: db.Collection("surveys")}
}

func (r *surveyRepo) Create(ctx context.Context, doc *model.SurveyDoc) error {
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *surveyRepo) Get(ctx context.Context, id string) (*model.SurveyDoc, error) {
	var doc model.SurveyDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *surveyRepo) List(ctx context.Context) ([]*model.SurveyDoc, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.SurveyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
