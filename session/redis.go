package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ingredientagent"
)

// RedisStore keeps each session under two keys sharing one TTL: a JSON
// profile string and a capped list of JSON history entries.
type RedisStore struct {
	rdb  redis.Cmdable
	opts Options
}

func NewRedisStore(rdb redis.Cmdable, opts Options) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts.withDefaults()}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), rdb.Close())
	}
	return rdb, nil
}

func (s *RedisStore) SaveProfile(ctx context.Context, sessionID string, profile ingredientagent.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, profileKey(sessionID), data, s.opts.TTL).Err()
}

func (s *RedisStore) Profile(ctx context.Context, sessionID string) (ingredientagent.UserProfile, bool, error) {
	var profile ingredientagent.UserProfile
	data, err := s.rdb.Get(ctx, profileKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return profile, false, nil
	}
	if err != nil {
		return profile, false, err
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, false, fmt.Errorf("decode profile: %w", err)
	}
	return profile, true, nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, sessionID string, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := historyKey(sessionID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.opts.HistoryLimit-1))
		pipe.Expire(ctx, key, s.opts.TTL)
		return nil
	})
	return err
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	items, err := s.rdb.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		var e HistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
