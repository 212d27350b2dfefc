package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/apexgas/commerce/internal/config"
)

const keyCheckoutClient = "checkout:session:%s"

// CheckoutLimiter throttles hosted-checkout session creation per client
// address. A nil limiter allows everything, so callers never branch on
// whether rate limiting is configured.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCheckoutLimiter(cfg config.Config) (*CheckoutLimiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit enabled but REDIS_ADDR is empty")
	}
	if cfg.RateLimit.CheckoutRate <= 0 || cfg.RateLimit.CheckoutBurst <= 0 {
		return nil, fmt.Errorf("checkout rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimit.CheckoutRate,
		burst:  cfg.RateLimit.CheckoutBurst,
	}, nil
}

func (l *CheckoutLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	if l == nil {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyCheckoutClient, strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// RetryAfterSeconds rounds up for the Retry-After response header.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
