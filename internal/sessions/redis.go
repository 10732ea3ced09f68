package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "itinerary:session:"

type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore создает хранилище сессий в Redis; записи истекают через ttl.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Save(ctx context.Context, session Session) (Session, error) {
	id, err := normalizeID(session.ID)
	if err != nil {
		return Session{}, err
	}

	session.ID = id
	session.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(session)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(id), payload, s.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Session{}, err
	}

	payload, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}

	return session, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}

	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
