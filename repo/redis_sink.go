package repo

import (
	"QuizBot/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends JSON records to a per-user list
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSink connects to addr and checks the connection
func NewRedisSink(ctx context.Context, addr string, ttl time.Duration) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", addr, err)
	}
	return &RedisSink{client: client, ttl: ttl}, nil
}

func (s *RedisSink) answersKey(userID int64) string {
	return fmt.Sprintf("quiz:answers:%d", userID)
}

func (s *RedisSink) Save(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.answersKey(rec.UserID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error saving answers: %w", err)
	}
	return nil
}

func (s *RedisSink) ListByUser(ctx context.Context, userID int64) ([]model.Record, error) {
	items, err := s.client.LRange(ctx, s.answersKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		var rec model.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
