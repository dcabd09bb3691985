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

// Package core holds the domain types shared across the gateway: agent
// identities, capability tags, plugin manifests, and policy decisions, plus
// the services that enforce policy over them (auth resolver, budget tracker,
// rate limiter, policy engine).
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Capability is a coarse-grained permission tag gating tool invocation.
// The set is closed: new capabilities require a code change.
type Capability string

const (
	// CapabilityNetworkOutbound allows a tool to open outbound HTTP
	// connections (subject to the per-agent egress allowlist).
	CapabilityNetworkOutbound Capability = "network:outbound"

	// CapabilityLLMQuery allows a tool to consume LLM provider budget.
	CapabilityLLMQuery Capability = "llm:query"

	// CapabilityFSRead allows read access to the filesystem.
	CapabilityFSRead Capability = "fs:read"

	// CapabilityFSWrite allows write access to the filesystem.
	CapabilityFSWrite Capability = "fs:write"

	// CapabilityDBRead allows read access to databases.
	CapabilityDBRead Capability = "db:read"

	// CapabilityDBWrite allows write access to databases.
	CapabilityDBWrite Capability = "db:write"
)

// knownCapabilities is the closed set accepted by ParseCapability.
var knownCapabilities = map[Capability]bool{
	CapabilityNetworkOutbound: true,
	CapabilityLLMQuery:        true,
	CapabilityFSRead:          true,
	CapabilityFSWrite:         true,
	CapabilityDBRead:          true,
	CapabilityDBWrite:         true,
}

// ParseCapability validates a capability tag against the known set.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if !knownCapabilities[c] {
		return "", fmt.Errorf("unknown capability: %q", s)
	}
	return c, nil
}

// AgentIdentity identifies an authenticated agent. TenantID groups agents
// and is informational only.
type AgentIdentity struct {
	AgentID  string `json:"agent_id"`
	TenantID string `json:"tenant_id"`
}

// PluginManifest is the static self-description a plugin supplies. The
// capabilities listed are those the plugin requires; the policy engine
// intersects them with the agent's allowed capabilities.
type PluginManifest struct {
	Name         string       `json:"name"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// Requires reports whether the manifest declares the given capability.
func (m PluginManifest) Requires(c Capability) bool {
	for _, mc := range m.Capabilities {
		if mc == c {
			return true
		}
	}
	return false
}

// PolicyDecision is the outcome of a single policy evaluation. When Allowed
// is true, Reasons is always empty.
type PolicyDecision struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Allow returns an allowing decision with no reasons.
func Allow() PolicyDecision {
	return PolicyDecision{Allowed: true}
}

// Deny returns a denying decision carrying the given reasons.
func Deny(reasons ...string) PolicyDecision {
	return PolicyDecision{Allowed: false, Reasons: reasons}
}

// Merge combines two decisions: denied if either is denied, with the
// concatenation of both reason lists; otherwise allowed.
func Merge(a, b PolicyDecision) PolicyDecision {
	if a.Allowed && b.Allowed {
		return Allow()
	}
	reasons := make([]string, 0, len(a.Reasons)+len(b.Reasons))
	reasons = append(reasons, a.Reasons...)
	reasons = append(reasons, b.Reasons...)
	return PolicyDecision{Allowed: false, Reasons: reasons}
}

// formatCapabilityList renders capabilities as a sorted, quoted list for
// denial messages, e.g. ['llm:query', 'network:outbound'].
func formatCapabilityList(caps []Capability) string {
	tags := make([]string, 0, len(caps))
	for _, c := range caps {
		tags = append(tags, string(c))
	}
	sort.Strings(tags)
	return "['" + strings.Join(tags, "', '") + "']"
}
