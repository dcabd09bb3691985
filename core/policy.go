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
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// AgentPolicy is the per-agent enforcement snapshot the engine evaluates
// against. The config layer builds one per configured agent at startup;
// the snapshot never changes afterwards.
type AgentPolicy struct {
	AllowedTools        []string
	AllowedCapabilities []Capability
	EgressAllowlist     []string
	MaxPayloadBytes     int
	RateLimit           int
	MaxCostPerDay       float64
}

// AllowsTool reports whether the tool name is on the agent's allowlist.
func (p *AgentPolicy) AllowsTool(name string) bool {
	for _, t := range p.AllowedTools {
		if t == name {
			return true
		}
	}
	return false
}

// HasCapability reports whether the agent is granted the capability.
func (p *AgentPolicy) HasCapability(c Capability) bool {
	for _, ac := range p.AllowedCapabilities {
		if ac == c {
			return true
		}
	}
	return false
}

// PolicyEngine is the single enforcement point for tool calls and egress.
// Every tool invocation passes through CheckToolCall; there is no bypass
// path. Checks accumulate all failing reasons rather than short-circuiting,
// so a client sees every blocking condition at once instead of probing for
// the next one retry by retry.
type PolicyEngine struct {
	policies map[string]*AgentPolicy
	budget   *BudgetTracker
	limiter  RateLimiter
	log      zerolog.Logger
}

// NewPolicyEngine wires the engine with its trackers. The limiter is
// injected so deployments can choose the in-memory or Redis-backed window.
func NewPolicyEngine(policies map[string]*AgentPolicy, limiter RateLimiter, log zerolog.Logger) *PolicyEngine {
	return &PolicyEngine{
		policies: policies,
		budget:   NewBudgetTracker(),
		limiter:  limiter,
		log:      log,
	}
}

// Budget exposes the tracker so the LLM router can record realised costs.
func (p *PolicyEngine) Budget() *BudgetTracker {
	return p.budget
}

// CheckToolCall runs all policy checks for a tool call in a fixed order:
// agent existence, tool allowlist, capability gating, payload size, rate
// window, and (for llm:query tools) daily budget. All failing reasons are
// accumulated into one decision. Only a fully-allowed call is recorded
// against the rate window.
func (p *PolicyEngine) CheckToolCall(identity AgentIdentity, manifest PluginManifest, payloadSize int) PolicyDecision {
	agent, ok := p.policies[identity.AgentID]
	if !ok {
		// Nothing else can be checked without an agent policy.
		return Deny(fmt.Sprintf("Unknown agent: %s", identity.AgentID))
	}

	var reasons []string

	if !agent.AllowsTool(manifest.Name) {
		reasons = append(reasons, fmt.Sprintf(
			"Tool '%s' is not in allowed_tools for agent '%s'", manifest.Name, identity.AgentID))
	}

	var missing []Capability
	for _, c := range manifest.Capabilities {
		if !agent.HasCapability(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		reasons = append(reasons, "Missing capabilities: "+formatCapabilityList(missing))
	}

	if payloadSize > agent.MaxPayloadBytes {
		reasons = append(reasons, fmt.Sprintf(
			"Payload size %d exceeds limit %d", payloadSize, agent.MaxPayloadBytes))
	}

	if !p.limiter.Check(identity.AgentID, agent.RateLimit) {
		reasons = append(reasons, fmt.Sprintf(
			"Rate limit exceeded: %d requests/minute", agent.RateLimit))
	}

	if manifest.Requires(CapabilityLLMQuery) {
		if p.budget.Check(identity.AgentID, agent.MaxCostPerDay) <= 0 {
			reasons = append(reasons, fmt.Sprintf(
				"Daily LLM budget exhausted (limit: $%.2f)", agent.MaxCostPerDay))
		}
	}

	if len(reasons) > 0 {
		p.log.Warn().
			Str("agent_id", identity.AgentID).
			Str("tool", manifest.Name).
			Strs("reasons", reasons).
			Msg("Policy deny")
		return Deny(reasons...)
	}

	p.limiter.Record(identity.AgentID)
	return Allow()
}

// CheckEgress decides whether the agent may open an outbound HTTP
// connection to host. The match against the egress allowlist is exact and
// case-insensitive; no suffix or wildcard matching.
func (p *PolicyEngine) CheckEgress(identity AgentIdentity, host string) PolicyDecision {
	agent, ok := p.policies[identity.AgentID]
	if !ok {
		return Deny(fmt.Sprintf("Unknown agent: %s", identity.AgentID))
	}

	if !agent.HasCapability(CapabilityNetworkOutbound) {
		return Deny(fmt.Sprintf(
			"Agent '%s' lacks capability 'network:outbound'", identity.AgentID))
	}

	hostLower := strings.ToLower(host)
	for _, allowed := range agent.EgressAllowlist {
		if strings.ToLower(allowed) == hostLower {
			return Allow()
		}
	}
	return Deny(fmt.Sprintf(
		"Host '%s' not in egress allowlist for agent '%s'", host, identity.AgentID))
}
