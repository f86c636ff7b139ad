// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/internal/observability"
	"github.com/gamevault/gamevault/pkg/errutil"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// fixedWindowScript increments the counter for the current window and
// starts the window on the first hit. It returns the count and the
// remaining window in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter shared by every process that
// points at the same Redis.
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	requests int
	window   time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter allows requests per window for each key.
func NewRedisLimiter(client redis.UniversalClient, prefix string, requests int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "gamevault:rl"
	}
	return &RedisLimiter{client: client, prefix: prefix, requests: requests, window: window}
}

// Allow counts one hit against key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.client == nil {
		return false, 0, oops.Code("RATE_LIMIT_UNAVAILABLE").Errorf("redis client is nil")
	}
	raw, err := fixedWindowScript.Run(ctx, l.client,
		[]string{fmt.Sprintf("%s:%s", l.prefix, key)},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, oops.Code("RATE_LIMIT_UNAVAILABLE").With("key", key).Wrap(err)
	}
	if len(raw) != 2 {
		return false, 0, oops.Code("RATE_LIMIT_UNAVAILABLE").Errorf("unexpected script reply of %d values", len(raw))
	}

	count, ttl := raw[0], time.Duration(raw[1])*time.Millisecond
	if ttl <= 0 {
		ttl = l.window
	}
	return count <= int64(l.requests), ttl, nil
}

// clientIP returns the request IP without the port. RealIP middleware has
// already replaced RemoteAddr when proxy headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limit rejects requests over the limiter's budget with 429. Limiter
// errors are logged and the request proceeds.
func (h *handler) limit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if h.limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := h.limiter.Allow(r.Context(), scope+":"+clientIP(r))
			if err != nil {
				observability.RecordRateLimitFailure(scope)
				errutil.LogErrorContext(r.Context(), h.logger, "rate limiter unavailable", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeJSON(w, http.StatusTooManyRequests, flatError{Error: "Too many requests."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
