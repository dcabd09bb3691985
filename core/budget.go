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

const secondsPerDay = 86400

// BudgetTracker accumulates per-agent LLM spend with daily rotation. An
// entry whose day index differs from today reads as zero spend; Record on a
// new day resets the entry before adding. Entries are never evicted: agent
// IDs come from a fixed configuration, so the map stays small.
type BudgetTracker struct {
	mu      sync.Mutex
	budgets map[string]*agentBudget

	// now is swappable for day-rollover tests.
	now func() time.Time
}

type agentBudget struct {
	spent float64
	day   int64 // days since the Unix epoch
}

// NewBudgetTracker returns an empty tracker.
func NewBudgetTracker() *BudgetTracker {
	return &BudgetTracker{
		budgets: make(map[string]*agentBudget),
		now:     time.Now,
	}
}

func (b *BudgetTracker) currentDay() int64 {
	return b.now().Unix() / secondsPerDay
}

// Check returns the remaining budget for today given the agent's daily cap.
// It never mutates tracker state.
func (b *BudgetTracker) Check(agentID string, maxCostPerDay float64) float64 {
	today := b.currentDay()
	b.mu.Lock()
	defer b.mu.Unlock()

	budget, ok := b.budgets[agentID]
	if !ok || budget.day != today {
		return maxCostPerDay
	}
	remaining := maxCostPerDay - budget.spent
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Record adds a cost charge for the agent. It does not validate against any
// cap; the policy engine decides whether a call may proceed.
func (b *BudgetTracker) Record(agentID string, cost float64) {
	today := b.currentDay()
	b.mu.Lock()
	defer b.mu.Unlock()

	budget, ok := b.budgets[agentID]
	if !ok || budget.day != today {
		budget = &agentBudget{day: today}
		b.budgets[agentID] = budget
	}
	budget.spent += cost
}

// SpentToday returns the total recorded for the agent today.
func (b *BudgetTracker) SpentToday(agentID string) float64 {
	today := b.currentDay()
	b.mu.Lock()
	defer b.mu.Unlock()

	budget, ok := b.budgets[agentID]
	if !ok || budget.day != today {
		return 0
	}
	return budget.spent
}
