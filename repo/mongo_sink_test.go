package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoSink(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("save inserts one document", func(mt *mtest.T) {
		sink := &MongoSink{client: mt.Client, collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, sink.Save(context.Background(), sampleRecord(7, first)))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
		doc := started.Command.Lookup("documents", "0").Document()
		assert.Equal(mt, int64(7), doc.Lookup("userId").Int64())
		assert.Equal(mt, "1", doc.Lookup("questionnaire").StringValue())
		assert.True(mt, doc.Lookup("completed").Boolean())
		assert.Equal(mt, "var1", doc.Lookup("answers", "0", "var").StringValue())
		assert.Equal(mt, "A", doc.Lookup("answers", "0", "value").StringValue())
		assert.Equal(mt, bson.TypeNull, doc.Lookup("answers", "1", "value").Type)
	})

	mt.Run("save reports write errors", func(mt *mtest.T) {
		sink := &MongoSink{client: mt.Client, collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := sink.Save(context.Background(), sampleRecord(7, first))
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "error saving answers")
	})

	mt.Run("list by user filters and sorts", func(mt *mtest.T) {
		sink := &MongoSink{client: mt.Client, collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "userId", Value: int64(7)},
				{Key: "questionnaire", Value: "1"},
				{Key: "completed", Value: true},
				{Key: "finishedAt", Value: first},
				{Key: "answers", Value: bson.A{bson.D{{Key: "var", Value: "var1"}, {Key: "value", Value: "A"}}}},
			},
			bson.D{
				{Key: "userId", Value: int64(7)},
				{Key: "questionnaire", Value: "2"},
				{Key: "completed", Value: false},
				{Key: "finishedAt", Value: first.Add(time.Minute)},
			},
		))

		records, err := sink.ListByUser(context.Background(), 7)
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, "1", records[0].Questionnaire)
		assert.True(mt, records[0].FinishedAt.Equal(first))
		a := "A"
		assert.Equal(mt, map[string]*string{"var1": &a}, records[0].Answers.Map())
		assert.False(mt, records[1].Completed)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, int64(7), started.Command.Lookup("filter", "userId").Int64())
		assert.Equal(mt, int32(1), started.Command.Lookup("sort", "finishedAt").Int32())
	})
}
