package model

import "time"

// Record is what an answer sink persists when a session exits.
type Record struct {
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	UserID        int64     `json:"userId" bson:"userId"`
	OriginToken   string    `json:"origin" bson:"origin"`
	Questionnaire string    `json:"questionnaire" bson:"questionnaire"`
	Answers       AnswerMap `json:"answers" bson:"answers"`
	Completed     bool      `json:"completed" bson:"completed"`
	FinishedAt    time.Time `json:"finishedAt" bson:"finishedAt"`
}
