//go:build integration

package cache

import (
	"testing"

	"github.com/recordport/recordport/internal/testutil"
)

func TestIntegrationCheckIPRateLimit_ExhaustsBurst(t *testing.T) {
	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	ctx := t.Context()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	const burst = 3
	ip := testutil.UniqueName("ip")
	for i := 0; i < burst; i++ {
		res, err := c.CheckIPRateLimit(ctx, "export", ip, 1, burst)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "export", ip, 1, burst)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
}
