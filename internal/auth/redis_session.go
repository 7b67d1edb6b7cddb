package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"orgdirectory/internal/models"
)

const redisSessionPrefix = "session:"

// RedisSessionStore keeps sessions in Redis with a TTL matching ExpiresAt.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, sess *models.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now()
	}
	ttl := sess.ExpiresAt.Sub(now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, redisSessionPrefix+sess.ID, b, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	b, err := s.Client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	if sess.Expired(now()) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, redisSessionPrefix+id).Err()
}

// Ping checks the connection, with a short timeout for start-up.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.Client.Ping(ctx).Err()
}
