package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gateway:session:"

// RedisRepo stores sessions in Redis so the gateway can run with more than
// one replica. The Redis key TTL mirrors the session's absolute expiry, so
// expired sessions vanish without a reaper.
type RedisRepo struct {
	client  *redis.Client
	nowTime func() time.Time
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{
		client:  client,
		nowTime: time.Now,
	}
}

func (r *RedisRepo) Upsert(sessionID string, session Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[RedisRepo.Upsert] marshal session: %w", err)
	}

	ttl := session.ExpiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		return r.Delete(sessionID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Upsert] redis set: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, fmt.Errorf("sessionID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("[RedisRepo.Get] redis get: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, fmt.Errorf("[RedisRepo.Get] unmarshal session: %w", err)
	}

	// The key TTL normally handles expiry, but guard against clock drift
	// between the gateway and the Redis host.
	if session.Expired(r.nowTime()) {
		_ = r.Delete(sessionID)
		return Session{}, ErrNotFound
	}

	return session, nil
}

func (r *RedisRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Delete] redis del: %w", err)
	}
	return nil
}
