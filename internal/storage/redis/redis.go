package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
	"saave-bot/pkg/redis"
)

const recordKeyPrefix = "saave_quotation_data"

// Storage keeps per-chat conversation state and the last completed
// quotation in Redis.
type Storage struct {
	client *redis.Client
}

func New(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// SaveDialog stores the session snapshot of a chat.
func (s *Storage) SaveDialog(ctx context.Context, chatID int64, state chat.State) error {
	const operation = "redis.SaveDialog"

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%s: marshal state: %w", operation, err)
	}
	if err := s.client.Set(ctx, buildStateKey(chatID), data, s.client.TTL()); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// LoadDialog returns the stored snapshot, or nil when the chat has none.
func (s *Storage) LoadDialog(ctx context.Context, chatID int64) (*chat.State, error) {
	const operation = "redis.LoadDialog"

	data, err := s.client.Get(ctx, buildStateKey(chatID))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	var state chat.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%s: unmarshal failure: %w", operation, err)
	}
	return &state, nil
}

// SaveRecord overwrites the completed quotation of a chat.
func (s *Storage) SaveRecord(ctx context.Context, chatID int64, record quote.Record) error {
	const operation = "redis.SaveRecord"

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: marshal record: %w", operation, err)
	}
	if err := s.client.Set(ctx, buildRecordKey(chatID), data, 0); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// LoadRecord returns the stored quotation. Absence is not an error.
func (s *Storage) LoadRecord(ctx context.Context, chatID int64) (*quote.Record, error) {
	const operation = "redis.LoadRecord"

	data, err := s.client.Get(ctx, buildRecordKey(chatID))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	var record quote.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%s: unmarshal failure: %w", operation, err)
	}
	return &record, nil
}

func (s *Storage) ClearRecord(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, buildRecordKey(chatID)); err != nil {
		return fmt.Errorf("redis.ClearRecord: %w", err)
	}
	return nil
}

func buildStateKey(chatID int64) string {
	return fmt.Sprintf("state:%d", chatID)
}

func buildRecordKey(chatID int64) string {
	return fmt.Sprintf("%s:%d", recordKeyPrefix, chatID)
}
