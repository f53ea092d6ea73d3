package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-io-social/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// ProfileCache stores assembled user profiles.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*domain.ProfileResponse, error)
	Set(ctx context.Context, key string, profile *domain.ProfileResponse, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(userID string) string
}
