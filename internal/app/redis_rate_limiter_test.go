package app

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseScanWindowReply(t *testing.T) {
	cases := []struct {
		name      string
		reply     interface{}
		windowMs  int64
		wantCount int
		wantRetry int
		wantErr   string
	}{
		{"first hit full window", []interface{}{int64(1), int64(60000)}, 60000, 1, 60, ""},
		{"partial window rounds up", []interface{}{int64(7), int64(1500)}, 60000, 7, 2, ""},
		{"missing expiry assumes full window", []interface{}{int64(3), int64(-1)}, 60000, 3, 60, ""},
		{"tiny ttl still reports one second", []interface{}{int64(2), int64(10)}, 60000, 2, 1, ""},
		{"wrong reply shape", "OK", 60000, 0, 0, "want {hits, ttl}"},
		{"wrong element types", []interface{}{"1", "60000"}, 60000, 0, 0, "want two integers"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count, retry, err := parseScanWindowReply(tc.reply, tc.windowMs)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if count != tc.wantCount || retry != tc.wantRetry {
				t.Fatalf("got (%d, %d), want (%d, %d)", count, retry, tc.wantCount, tc.wantRetry)
			}
		})
	}
}

func TestRedisScanRateLimiter_DisabledWithoutClient(t *testing.T) {
	var limiter *RedisScanRateLimiter

	count, retry, err := limiter.ConsumeRateLimit(context.Background(), "scan", "operator-1", 10, time.Minute)
	if err != nil || count != 0 || retry != 0 {
		t.Fatalf("nil limiter must be a no-op, got (%d, %d, %v)", count, retry, err)
	}
}

func TestNewRedisScanRateLimiter_PrefixDefaults(t *testing.T) {
	if got := NewRedisScanRateLimiter(nil, "  ").prefix; got != "pileta:rate_limit" {
		t.Fatalf("expected default prefix, got %q", got)
	}
	if got := NewRedisScanRateLimiter(nil, "custom:keys:").prefix; got != "custom:keys" {
		t.Fatalf("expected trailing colon trimmed, got %q", got)
	}
}
