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

// Package about implements the server introspection resources:
// about://server (identity) and about://policies (the requesting agent's
// effective policy, secrets excluded).
package about

import (
	"context"
	"encoding/json"
	"fmt"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
)

// ServerPlugin implements base.ResourcePlugin for about://server.
type ServerPlugin struct {
	cfg *config.Config
}

// NewServer returns the about://server resource.
func NewServer(cfg *config.Config) *ServerPlugin {
	return &ServerPlugin{cfg: cfg}
}

// Manifest implements base.ResourcePlugin.
func (p *ServerPlugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "about.server",
		Title:       "About Server",
		Description: "Server name, version, and description.",
	}
}

// URI implements base.ResourcePlugin.
func (p *ServerPlugin) URI() string {
	return "about://server"
}

// Read implements base.ResourcePlugin.
func (p *ServerPlugin) Read(ctx context.Context, identity core.AgentIdentity) (string, error) {
	out, err := json.MarshalIndent(map[string]string{
		"name":        p.cfg.Server.Name,
		"version":     p.cfg.Server.Version,
		"description": p.cfg.Server.Description,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// PoliciesPlugin implements base.ResourcePlugin for about://policies.
type PoliciesPlugin struct {
	cfg *config.Config
}

// NewPolicies returns the about://policies resource.
func NewPolicies(cfg *config.Config) *PoliciesPlugin {
	return &PoliciesPlugin{cfg: cfg}
}

// Manifest implements base.ResourcePlugin.
func (p *PoliciesPlugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "about.policies",
		Title:       "About Policies",
		Description: "Effective policy configuration for the requesting agent (secrets redacted).",
	}
}

// URI implements base.ResourcePlugin.
func (p *PoliciesPlugin) URI() string {
	return "about://policies"
}

// Read implements base.ResourcePlugin. Tokens and provider API keys are
// never part of the rendered snapshot.
func (p *PoliciesPlugin) Read(ctx context.Context, identity core.AgentIdentity) (string, error) {
	agent := p.cfg.Agent(identity.AgentID)
	if agent == nil {
		return fmt.Sprintf(`{"error": "Unknown agent: %s"}`, identity.AgentID), nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"agent_id":               identity.AgentID,
		"tenant_id":              identity.TenantID,
		"allowed_tools":          agent.AllowedTools,
		"allowed_capabilities":   agent.AllowedCapabilities,
		"egress_allowlist":       agent.EgressAllowlist,
		"max_payload_bytes":      agent.MaxPayloadBytes,
		"max_response_bytes":     agent.MaxResponseBytes,
		"timeout_seconds":        agent.TimeoutSeconds,
		"concurrency":            agent.Concurrency,
		"rate_limit":             agent.RateLimit,
		"max_tokens_per_request": agent.MaxTokensPerRequest,
		"max_cost_per_day":       agent.MaxCostPerDay,
		"enabled_plugins":        p.cfg.EnabledPlugins,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
