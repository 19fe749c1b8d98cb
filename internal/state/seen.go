package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SeenSet remembers fingerprints already written to the document store.
// It can outlive the store it describes, so a member is only a hint.
type SeenSet interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

type redisSeenSet struct {
	redisClient *redis.Client
	key         string
}

func NewRedisSeenSet(redisClient *redis.Client, keyPrefix string) SeenSet {
	return &redisSeenSet{
		redisClient: redisClient,
		key:         keyPrefix + "seen",
	}
}

func (s *redisSeenSet) Contains(ctx context.Context, id string) (bool, error) {
	found, err := s.redisClient.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint %s: %w", id, err)
	}
	return found, nil
}

func (s *redisSeenSet) Add(ctx context.Context, id string) error {
	if err := s.redisClient.SAdd(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("failed to remember fingerprint %s: %w", id, err)
	}
	return nil
}

func (s *redisSeenSet) Remove(ctx context.Context, id string) error {
	if err := s.redisClient.SRem(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("failed to forget fingerprint %s: %w", id, err)
	}
	return nil
}
