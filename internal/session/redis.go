package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions and query history in Redis. History is held
// in per-session lists, newest first.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection. ttl of zero
// keeps entries forever.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string { return "session:" + id }
func historyKey(id string) string { return "session:" + id + ":queries" }

const sessionIndexKey = "sessions"

func (s *RedisStore) CreateSession(ctx context.Context, label string) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), Label: label, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), data, s.ttl)
	pipe.ZAdd(ctx, sessionIndexKey, redis.Z{Score: float64(sess.CreatedAt.UnixNano()), Member: sess.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.client.ZRevRange(ctx, sessionIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, nil
}

func (s *RedisStore) RecordQuery(ctx context.Context, rec QueryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, historyKey(rec.SessionID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey(rec.SessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("recording query: %w", err)
	}
	return rec.ID, nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]QueryRecord, 0, len(raw))
	for _, item := range raw {
		var rec QueryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
