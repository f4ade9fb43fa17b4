package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// LoginLimiter counts failed logins per account kind and email in Redis.
// Key format: login:fail:<kind>:<email>
//
// The counter's TTL is set on the first failure only, so the window is fixed
// rather than sliding.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

var _ ports.LoginLimiter = (*LoginLimiter)(nil)

// NewLoginLimiter creates a LoginLimiter. Non-positive values fall back to
// DefaultMaxAttempts and DefaultWindow.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Locked reports whether the email has reached the failure limit.
func (l *LoginLimiter) Locked(ctx context.Context, kind domain.Kind, email string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(kind, email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login limiter get: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// Fail records one failed attempt.
func (l *LoginLimiter) Fail(ctx context.Context, kind domain.Kind, email string) error {
	key := l.key(kind, email)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, kind domain.Kind, email string) error {
	return l.client.Del(ctx, l.key(kind, email)).Err()
}

func (l *LoginLimiter) key(kind domain.Kind, email string) string {
	return fmt.Sprintf("login:fail:%s:%s", kind, strings.ToLower(email))
}
