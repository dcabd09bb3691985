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
	"sync"
	"time"
)

// rateWindow is the sliding window length for request rate limiting.
const rateWindow = 60 * time.Second

// RateLimiter is the sliding-window request limiter consulted by the policy
// engine. Check and Record are separately atomic: callers must Check before
// Record and Record only when the whole decision is an allow, so denied
// calls do not inflate the window. Under concurrent arrivals the limit may
// be overshot by up to arrivals-1; this is accepted.
type RateLimiter interface {
	// Check reports whether the agent is under its limit for the current
	// 60-second window. Stale entries are pruned as a side effect.
	Check(agentID string, limit int) bool

	// Record appends the current timestamp to the agent's window.
	Record(agentID string)
}

// MemoryRateLimiter keeps per-agent windows of monotonic timestamps in
// process memory. Entries older than the window are pruned in place on every
// Check, keeping the amortised cost at O(limit) per call. Agent entries are
// never evicted; agent IDs come from a fixed configuration.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	now func() time.Time
}

// NewMemoryRateLimiter returns an empty in-process limiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check implements RateLimiter.
func (r *MemoryRateLimiter) Check(agentID string, limit int) bool {
	cutoff := r.now().Add(-rateWindow)

	r.mu.Lock()
	defer r.mu.Unlock()

	window := r.windows[agentID]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.windows[agentID] = kept
	return len(kept) < limit
}

// Record implements RateLimiter.
func (r *MemoryRateLimiter) Record(agentID string) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[agentID] = append(r.windows[agentID], now)
}

// ConcurrencyLimiter hands out per-agent counting semaphores. The gateway
// acquires an agent's gate around tool execution; the core policy decision
// itself only uses the rate limit.
type ConcurrencyLimiter struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

// NewConcurrencyLimiter returns an empty gate table.
func NewConcurrencyLimiter() *ConcurrencyLimiter {
	return &ConcurrencyLimiter{gates: make(map[string]chan struct{})}
}

// Gate returns the agent's semaphore, creating it with the given capacity on
// first use. The capacity of an existing gate is not changed: the config
// snapshot is immutable, so capacity never varies for a given agent.
func (c *ConcurrencyLimiter) Gate(agentID string, capacity int) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate, ok := c.gates[agentID]
	if !ok {
		gate = make(chan struct{}, capacity)
		c.gates[agentID] = gate
	}
	return gate
}
