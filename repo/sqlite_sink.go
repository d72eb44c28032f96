package repo

import (
	"QuizBot/model"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS answers (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT    NOT NULL,
	user_id       INTEGER NOT NULL,
	origin        TEXT    NOT NULL,
	questionnaire TEXT    NOT NULL,
	completed     INTEGER NOT NULL,
	finished_at   TEXT    NOT NULL,
	answers       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_user ON answers(user_id);
`

// SQLiteSink stores one row per finished session, answers as a JSON column
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (and creates if needed) the database at path. ":memory:" is accepted.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Save(ctx context.Context, rec model.Record) error {
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO answers (session_id, user_id, origin, questionnaire, completed, finished_at, answers)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UserID, rec.OriginToken, rec.Questionnaire, rec.Completed,
		rec.FinishedAt.UTC().Format(time.RFC3339Nano), string(answers),
	)
	if err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	return nil
}

func (s *SQLiteSink) ListByUser(ctx context.Context, userID int64) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, origin, questionnaire, completed, finished_at, answers
		 FROM answers WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			rec        model.Record
			finishedAt string
			answers    string
		)
		if err := rows.Scan(&rec.SessionID, &rec.UserID, &rec.OriginToken, &rec.Questionnaire,
			&rec.Completed, &finishedAt, &answers); err != nil {
			return nil, fmt.Errorf("scan answers: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
