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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/gateway/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "toolgate", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"core.echo", "core.sum"}, cfg.EnabledPlugins)
	assert.Equal(t, DefaultRedactPatterns, cfg.RedactPatterns)
	assert.Empty(t, cfg.Agents)
}

func TestLoadAppliesAgentDefaults(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: secret-alpha
    allowed_tools: [core.echo]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	agent := cfg.Agent("agent-alpha")
	require.NotNil(t, agent)
	assert.Equal(t, "default", agent.TenantID)
	assert.Equal(t, DefaultMaxPayloadBytes, agent.MaxPayloadBytes)
	assert.Equal(t, DefaultTimeoutSeconds, agent.TimeoutSeconds)
	assert.Equal(t, DefaultConcurrency, agent.Concurrency)
	assert.Equal(t, DefaultRateLimit, agent.RateLimit)
	assert.Equal(t, DefaultMaxTokensPerRequest, agent.MaxTokensPerRequest)
	assert.InDelta(t, DefaultMaxCostPerDay, agent.MaxCostPerDay, 1e-9)
}

func TestLoadExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
server:
  name: custom
  port: 9000
agents:
  agent-alpha:
    token: secret-alpha
    tenant_id: team-a
    allowed_tools: [core.echo, llm.query]
    allowed_capabilities: [network:outbound, llm:query]
    egress_allowlist: [api.openai.com]
    max_payload_bytes: 2048
    rate_limit: 10
    max_cost_per_day: 25.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.Server.Name)
	assert.Equal(t, 9000, cfg.Server.Port)

	agent := cfg.Agent("agent-alpha")
	require.NotNil(t, agent)
	assert.Equal(t, "team-a", agent.TenantID)
	assert.Equal(t, 2048, agent.MaxPayloadBytes)
	assert.Equal(t, 10, agent.RateLimit)
	assert.InDelta(t, 25.0, agent.MaxCostPerDay, 1e-9)
	assert.True(t, agent.AllowsTool("llm.query"))
	assert.False(t, agent.AllowsTool("core.sum"))
	assert.True(t, agent.HasCapability(core.CapabilityNetworkOutbound))
	assert.False(t, agent.HasCapability(core.CapabilityFSRead))
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_TOKEN", "from-env")
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: ${TOOLGATE_TEST_TOKEN}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Agent("agent-alpha").Token)
}

func TestLoadEnvExpansionUnsetIsEmpty(t *testing.T) {
	path := writeConfig(t, `
server:
  description: ${TOOLGATE_TEST_DEFINITELY_UNSET}
agents:
  agent-alpha:
    token: secret-alpha
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Server.Description)
}

func TestLoadRejectsDuplicateTokens(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: same
  agent-beta:
    token: same
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share the same token")
}

func TestLoadRejectsMissingToken(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    allowed_tools: [core.echo]
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownCapability(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: secret-alpha
    allowed_capabilities: [network:inbound]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown capability")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "agents: [not: a: map")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadRedactPattern(t *testing.T) {
	path := writeConfig(t, `
redact_patterns: ["(unclosed"]
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadLLMProviders(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_KEY", "sk-test")
	path := writeConfig(t, `
llm:
  providers:
    openai:
      api_key: ${TOOLGATE_TEST_KEY}
      allowed_models: [gpt-4o]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	provider := cfg.LLM.Providers["openai"]
	require.NotNil(t, provider)
	assert.Equal(t, "sk-test", provider.APIKey)
	assert.True(t, provider.AllowsModel("gpt-4o"))
	assert.False(t, provider.AllowsModel("gpt-4"))
}

func TestAgentPoliciesSnapshot(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: secret-alpha
    allowed_tools: [core.echo]
    allowed_capabilities: [llm:query]
    rate_limit: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	policies := cfg.AgentPolicies()
	require.Contains(t, policies, "agent-alpha")
	policy := policies["agent-alpha"]
	assert.True(t, policy.AllowsTool("core.echo"))
	assert.True(t, policy.HasCapability(core.CapabilityLLMQuery))
	assert.Equal(t, 7, policy.RateLimit)
}

func TestTokenEntries(t *testing.T) {
	path := writeConfig(t, `
agents:
  agent-alpha:
    token: secret-alpha
    tenant_id: team-a
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	entries := cfg.TokenEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "secret-alpha", entries[0].Token)
	assert.Equal(t, "agent-alpha", entries[0].Identity.AgentID)
	assert.Equal(t, "team-a", entries[0].Identity.TenantID)
}
