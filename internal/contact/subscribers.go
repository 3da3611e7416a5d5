package contact

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const subscribersKey = "newsletter::subscribers"

// Subscribers stores newsletter subscriber emails in a redis set.
type Subscribers struct {
	redisClient *redis.Client
}

func NewSubscribers(redisClient *redis.Client) *Subscribers {
	return &Subscribers{redisClient: redisClient}
}

// Add stores the email and reports whether it was newly added.
func (s *Subscribers) Add(ctx context.Context, email string) (bool, error) {
	added, err := s.redisClient.SAdd(ctx, subscribersKey, email).Result()
	if err != nil {
		return false, fmt.Errorf("add newsletter subscriber: %w", err)
	}
	return added > 0, nil
}

func (s *Subscribers) Remove(ctx context.Context, email string) error {
	if err := s.redisClient.SRem(ctx, subscribersKey, email).Err(); err != nil {
		return fmt.Errorf("remove newsletter subscriber: %w", err)
	}
	return nil
}

func (s *Subscribers) Count(ctx context.Context) (int64, error) {
	count, err := s.redisClient.SCard(ctx, subscribersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count newsletter subscribers: %w", err)
	}
	return count, nil
}
