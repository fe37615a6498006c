package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anjali-menon/learnspace-api/internal/models"
)

const keyPrefix = "session:"

// ErrNotFound means no session snapshot exists for the user. Logged-out and
// cache-evicted users look identical to callers.
var ErrNotFound = errors.New("session: not found")

// Store holds one serialized session snapshot per user id.
type Store interface {
	Save(ctx context.Context, userID string, sess *models.Session, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*models.Session, error)
	Delete(ctx context.Context, userID string) error
}

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

// Save overwrites the user's snapshot. Last writer wins; a concurrent login
// for the same user silently replaces the earlier session.
func (s *redisStore) Save(ctx context.Context, userID string, sess *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+userID, data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess := &models.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Delete removes the snapshot. Deleting an absent key is a no-op.
func (s *redisStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
