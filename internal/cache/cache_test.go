package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestHashIP(t *testing.T) {
	t.Parallel()

	ips := []string{"192.168.1.1", "192.168.1.2", "127.0.0.1", "::1", "2001:db8::7334", ""}
	seen := make(map[string]string, len(ips))
	for _, ip := range ips {
		h := hashIP(ip)
		if len(h) != 16 {
			t.Errorf("hashIP(%q) length = %d, want 16", ip, len(h))
		}
		if h != hashIP(ip) {
			t.Errorf("hashIP(%q) is not deterministic", ip)
		}
		if other, dup := seen[h]; dup {
			t.Errorf("hashIP collision between %q and %q", ip, other)
		}
		seen[h] = ip
	}
}

func TestIPRateLimitKey(t *testing.T) {
	t.Parallel()

	key := ipRateLimitKey("export", "10.0.0.1")
	if want := "ratelimit:ip:export:" + hashIP("10.0.0.1"); key != want {
		t.Errorf("ipRateLimitKey = %q, want %q", key, want)
	}
	if key == ipRateLimitKey("import", "10.0.0.1") {
		t.Error("scopes should not share a bucket")
	}
}

func TestCheckIPRateLimit_RejectsZeroRate(t *testing.T) {
	t.Parallel()

	c := &Cache{}
	if _, err := c.CheckIPRateLimit(t.Context(), "export", "10.0.0.1", 0, 5); err == nil {
		t.Error("expected error for zero rate")
	}
}

func TestWithPoolSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n        int
		wantPool int
		wantIdle int
	}{
		{0, 10, 2},
		{-3, 10, 2},
		{25, 25, 5},
		{3, 3, 1},
	}

	for _, tt := range tests {
		opt := &redis.Options{PoolSize: 10, MinIdleConns: 2}
		WithPoolSize(tt.n)(opt)
		if opt.PoolSize != tt.wantPool || opt.MinIdleConns != tt.wantIdle {
			t.Errorf("WithPoolSize(%d) = pool %d idle %d, want %d/%d",
				tt.n, opt.PoolSize, opt.MinIdleConns, tt.wantPool, tt.wantIdle)
		}
	}
}
