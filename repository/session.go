package repository

import (
	"context"
	"time"

	"github.com/fastygo/portal-cidadao/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}

// RateLimiter counts actions per key in a fixed window.
type RateLimiter interface {
	// Allow records one hit and reports whether the key is still under its
	// limit, plus the remaining window when it is not.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
