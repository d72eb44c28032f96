package repo

import (
	"QuizBot/model"
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

const answersRef = "answers"

// FirebaseConnector stores finished sessions in the Firebase Realtime Database
type FirebaseConnector struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseConnector creates a new Firebase connector
func NewFirebaseConnector(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseConnector, error) {
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	return newFirebaseConnector(ctx, config, opt)
}

func newFirebaseConnector(ctx context.Context, config *firebase.Config, opts ...option.ClientOption) (*FirebaseConnector, error) {
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseConnector{
		app:    app,
		client: client,
	}, nil
}

// Save pushes the record under answers/<userID>
func (fc *FirebaseConnector) Save(ctx context.Context, rec model.Record) error {
	ref := fc.client.NewRef(answersRef).Child(strconv.FormatInt(rec.UserID, 10))
	if _, err := ref.Push(ctx, rec); err != nil {
		return fmt.Errorf("error saving answers: %w", err)
	}
	return nil
}

// ListByUser reads back every record stored for a user
func (fc *FirebaseConnector) ListByUser(ctx context.Context, userID int64) ([]model.Record, error) {
	ref := fc.client.NewRef(answersRef).Child(strconv.FormatInt(userID, 10))
	var stored map[string]model.Record
	if err := ref.Get(ctx, &stored); err != nil {
		return nil, fmt.Errorf("error listing answers: %w", err)
	}
	records := make([]model.Record, 0, len(stored))
	for _, rec := range stored {
		records = append(records, rec)
	}
	sortRecords(records)
	return records, nil
}

// Close is a no-op, the Realtime Database client holds no connection to release
func (fc *FirebaseConnector) Close() error {
	return nil
}
