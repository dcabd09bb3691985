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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterUnderLimit(t *testing.T) {
	r := NewMemoryRateLimiter()

	for i := 0; i < 4; i++ {
		assert.True(t, r.Check("agent-alpha", 5))
		r.Record("agent-alpha")
	}
	assert.True(t, r.Check("agent-alpha", 5))
}

func TestRateLimiterAtLimit(t *testing.T) {
	r := NewMemoryRateLimiter()

	for i := 0; i < 5; i++ {
		r.Record("agent-alpha")
	}
	assert.False(t, r.Check("agent-alpha", 5))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	r := NewMemoryRateLimiter()
	now := time.Now()
	r.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		r.Record("agent-alpha")
	}
	assert.False(t, r.Check("agent-alpha", 5))

	// 61 seconds later all entries have aged out.
	now = now.Add(61 * time.Second)
	assert.True(t, r.Check("agent-alpha", 5))
}

func TestRateLimiterPartialExpiry(t *testing.T) {
	r := NewMemoryRateLimiter()
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Record("agent-alpha")
	r.Record("agent-alpha")

	now = now.Add(40 * time.Second)
	r.Record("agent-alpha")
	assert.False(t, r.Check("agent-alpha", 3))

	// First two entries expire, the third remains.
	now = now.Add(25 * time.Second)
	assert.True(t, r.Check("agent-alpha", 3))
	assert.False(t, r.Check("agent-alpha", 1))
}

func TestRateLimiterAgentsIndependent(t *testing.T) {
	r := NewMemoryRateLimiter()

	for i := 0; i < 5; i++ {
		r.Record("agent-alpha")
	}
	assert.True(t, r.Check("agent-beta", 5))
}

func TestConcurrencyGateCapacity(t *testing.T) {
	c := NewConcurrencyLimiter()

	gate := c.Gate("agent-alpha", 2)
	assert.Equal(t, 2, cap(gate))

	// Same gate is returned on subsequent calls; capacity does not change.
	again := c.Gate("agent-alpha", 99)
	assert.Equal(t, 2, cap(again))

	gate <- struct{}{}
	gate <- struct{}{}
	select {
	case gate <- struct{}{}:
		t.Fatal("gate admitted beyond capacity")
	default:
	}
}
