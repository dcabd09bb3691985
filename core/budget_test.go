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

func TestBudgetRecordAccumulates(t *testing.T) {
	b := NewBudgetTracker()

	b.Record("agent-alpha", 1.5)
	b.Record("agent-alpha", 2.5)

	assert.InDelta(t, 4.0, b.SpentToday("agent-alpha"), 1e-9)
	assert.InDelta(t, 6.0, b.Check("agent-alpha", 10.0), 1e-9)
}

func TestBudgetCheckDoesNotMutate(t *testing.T) {
	b := NewBudgetTracker()
	b.Record("agent-alpha", 3.0)

	for i := 0; i < 5; i++ {
		b.Check("agent-alpha", 10.0)
	}
	assert.InDelta(t, 3.0, b.SpentToday("agent-alpha"), 1e-9)
}

func TestBudgetRemainingClampsAtZero(t *testing.T) {
	b := NewBudgetTracker()
	b.Record("agent-alpha", 15.0)

	assert.Equal(t, 0.0, b.Check("agent-alpha", 10.0))
}

func TestBudgetUnknownAgentHasFullBudget(t *testing.T) {
	b := NewBudgetTracker()

	assert.InDelta(t, 10.0, b.Check("never-seen", 10.0), 1e-9)
	assert.Equal(t, 0.0, b.SpentToday("never-seen"))
}

func TestBudgetDailyRollover(t *testing.T) {
	b := NewBudgetTracker()
	now := time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.Record("agent-alpha", 9.0)
	assert.InDelta(t, 1.0, b.Check("agent-alpha", 10.0), 1e-9)

	// Next UTC day: yesterday's spend reads as zero.
	now = now.Add(2 * time.Hour)
	assert.InDelta(t, 10.0, b.Check("agent-alpha", 10.0), 1e-9)
	assert.Equal(t, 0.0, b.SpentToday("agent-alpha"))

	// Recording on the new day resets before adding.
	b.Record("agent-alpha", 2.0)
	assert.InDelta(t, 2.0, b.SpentToday("agent-alpha"), 1e-9)
}

func TestBudgetAgentsIndependent(t *testing.T) {
	b := NewBudgetTracker()
	b.Record("agent-alpha", 5.0)

	assert.InDelta(t, 10.0, b.Check("agent-beta", 10.0), 1e-9)
}
