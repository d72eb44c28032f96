package repo

import (
	"QuizBot/model"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink inserts one document per finished session
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoSink(ctx context.Context, uri string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}
	return &MongoSink{
		client:     client,
		collection: client.Database("quizbot").Collection("answers"),
	}, nil
}

func (s *MongoSink) Save(ctx context.Context, rec model.Record) error {
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("error saving answers: %w", err)
	}
	return nil
}

func (s *MongoSink) ListByUser(ctx context.Context, userID int64) ([]model.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *MongoSink) Close() error {
	return s.client.Disconnect(context.Background())
}
