package repo

import (
	"QuizBot/model"
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// Sink is an answer sink with a backing connection
type Sink interface {
	Save(ctx context.Context, rec model.Record) error
	Close() error
}

// Lister is implemented by sinks that can read answers back
type Lister interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Record, error)
}

func sortRecords(records []model.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].FinishedAt.Before(records[j].FinishedAt)
	})
}

// LogSink only logs records. Used when no storage backend is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger.With().Str("component", "log_sink").Logger()}
}

func (s *LogSink) Save(_ context.Context, rec model.Record) error {
	ev := s.log.Info().
		Int64("user_id", rec.UserID).
		Str("session_id", rec.SessionID).
		Str("questionnaire", rec.Questionnaire).
		Bool("completed", rec.Completed)
	answers := zerolog.Dict()
	for _, a := range rec.Answers {
		if a.Value == nil {
			answers.Interface(a.VarName, nil)
			continue
		}
		answers.Str(a.VarName, *a.Value)
	}
	ev.Dict("answers", answers).Msg("answers received")
	return nil
}

func (s *LogSink) Close() error { return nil }
