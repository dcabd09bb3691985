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

// Package instructions implements the instructions://agent resource,
// serving the per-agent instruction text agents load at session start.
package instructions

import (
	"context"
	"encoding/json"
	"fmt"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
)

// Plugin implements base.ResourcePlugin.
type Plugin struct {
	cfg *config.Config
}

// New returns the instructions://agent resource.
func New(cfg *config.Config) *Plugin {
	return &Plugin{cfg: cfg}
}

// Manifest implements base.ResourcePlugin.
func (p *Plugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "instructions.agent",
		Title:       "Agent Instructions",
		Description: "Per-agent instructions loaded at session start and after context clearing.",
	}
}

// URI implements base.ResourcePlugin.
func (p *Plugin) URI() string {
	return "instructions://agent"
}

// Read implements base.ResourcePlugin. Agents without configured
// instructions get a JSON placeholder rather than an empty body.
func (p *Plugin) Read(ctx context.Context, identity core.AgentIdentity) (string, error) {
	agent := p.cfg.Agent(identity.AgentID)
	if agent == nil {
		return fmt.Sprintf(`{"error": "Unknown agent: %s"}`, identity.AgentID), nil
	}

	if agent.Instructions == "" {
		out, err := json.Marshal(map[string]string{
			"agent_id":     identity.AgentID,
			"instructions": "(no per-agent instructions configured)",
		})
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return agent.Instructions, nil
}
