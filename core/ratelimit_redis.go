// Copyright 2025 ToolGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisRateLimiter implements the sliding window on a Redis sorted set, so
// the limit holds across gateway replicas. Each agent has one key holding
// request timestamps as scores; Check prunes and counts, Record adds.
//
// Redis failures fail open: a gateway that cannot reach Redis keeps serving
// rather than denying every request.
type RedisRateLimiter struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisRateLimiter connects to the Redis at url (redis://host:port[/db])
// and verifies the connection with a short ping.
func NewRedisRateLimiter(url string, log zerolog.Logger) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRateLimiter{client: client, log: log}, nil
}

func rateKey(agentID string) string {
	return "ratelimit:" + agentID
}

// Check implements RateLimiter. It prunes entries older than the window and
// compares the remaining cardinality against the limit without adding the
// current request.
func (r *RedisRateLimiter) Check(agentID string, limit int) bool {
	ctx := context.Background()
	key := rateKey(agentID)
	minScore := fmt.Sprintf("%d", time.Now().Add(-rateWindow).UnixNano())

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", minScore)
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Err(err).Str("agent_id", agentID).
			Msg("Redis rate limit check failed, failing open")
		return true
	}
	return card.Val() < int64(limit)
}

// Record implements RateLimiter. The key expires after two windows so idle
// agents do not accumulate dead keys.
func (r *RedisRateLimiter) Record(agentID string) {
	ctx := context.Background()
	key := rateKey(agentID)
	now := time.Now().UnixNano()

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now), Member: fmt.Sprintf("%d", now)})
	pipe.Expire(ctx, key, 2*rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Err(err).Str("agent_id", agentID).
			Msg("Redis rate limit record failed")
	}
}

// Close releases the Redis connection pool.
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}
