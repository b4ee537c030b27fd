package http_test

import (
	httptransport "bms-service/internal/transport/http"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiter(t *testing.T) {
	limiter := httptransport.NewMemoryRateLimiter()
	t.Cleanup(func() { _ = limiter.Close() })

	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := limiter.Allow(ctx, "user:1", 3, time.Minute)
		assert.True(t, d.Allowed)
		assert.Equal(t, i, d.Count)
	}

	d := limiter.Allow(ctx, "user:1", 3, time.Minute)
	assert.False(t, d.Allowed)
	assert.False(t, d.WindowEnd.IsZero())

	assert.True(t, limiter.Allow(ctx, "user:2", 3, time.Minute).Allowed)
	assert.True(t, limiter.Allow(ctx, "user:1", 0, time.Minute).Allowed)
}

func TestMemoryRateLimiterWindowExpires(t *testing.T) {
	limiter := httptransport.NewMemoryRateLimiter()
	t.Cleanup(func() { _ = limiter.Close() })

	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "ip:10.0.0.1", 1, 20*time.Millisecond).Allowed)
	assert.False(t, limiter.Allow(ctx, "ip:10.0.0.1", 1, 20*time.Millisecond).Allowed)

	time.Sleep(30 * time.Millisecond)

	assert.True(t, limiter.Allow(ctx, "ip:10.0.0.1", 1, 20*time.Millisecond).Allowed)
}
