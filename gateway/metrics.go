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

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors. Label cardinality is
// bounded: agent IDs and tool names come from a fixed configuration.
type Metrics struct {
	ToolCalls     *prometheus.CounterVec
	PolicyDenials *prometheus.CounterVec
	LLMCost       *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgate_tool_calls_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "status"}),
		PolicyDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgate_policy_denials_total",
			Help: "Policy denials by agent.",
		}, []string{"agent_id"}),
		LLMCost: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgate_llm_cost_usd_total",
			Help: "Estimated LLM spend in USD by agent.",
		}, []string{"agent_id"}),
	}
}
