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

// Package config loads the gateway configuration from a single YAML document
// with ${VAR} environment expansion. The loaded snapshot is immutable for the
// lifetime of the process: tokens, allowlists, and plugin sets are read-only
// after startup.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"toolgate/gateway/core"
)

// Defaults applied to agent entries that omit the corresponding key.
const (
	DefaultMaxPayloadBytes     = 1 << 20 // 1 MiB
	DefaultMaxResponseBytes    = 1 << 20
	DefaultTimeoutSeconds      = 30
	DefaultConcurrency         = 5
	DefaultRateLimit           = 60 // requests per 60s window
	DefaultMaxTokensPerRequest = 4096
	DefaultMaxCostPerDay       = 10.0 // USD
)

// DefaultRedactPatterns cover the common secret shapes: provider API keys,
// bearer tokens, and api_key-style assignments.
var DefaultRedactPatterns = []string{
	`(?i)(sk-[a-zA-Z0-9]{20,})`,
	`(?i)(Bearer\s+[a-zA-Z0-9._\-]+)`,
	`(?i)(api[_-]?key\s*[:=]\s*\S+)`,
}

// ServerConfig holds the listener and server identity settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`

	// RedisURL, when set, switches the rate limiter to a Redis-backed
	// sliding window shared across gateway replicas.
	RedisURL string `yaml:"redis_url"`
}

// AgentConfig is the per-agent policy bundle. All quota fields fall back to
// package defaults when omitted from the YAML document.
type AgentConfig struct {
	Token               string            `yaml:"token"`
	TenantID            string            `yaml:"tenant_id"`
	AllowedTools        []string          `yaml:"allowed_tools"`
	AllowedCapabilities []core.Capability `yaml:"allowed_capabilities"`
	EgressAllowlist     []string          `yaml:"egress_allowlist"`
	MaxPayloadBytes     int               `yaml:"max_payload_bytes"`
	MaxResponseBytes    int               `yaml:"max_response_bytes"`
	TimeoutSeconds      int               `yaml:"timeout_seconds"`
	Concurrency         int               `yaml:"concurrency"`
	RateLimit           int               `yaml:"rate_limit"`
	MaxTokensPerRequest int               `yaml:"max_tokens_per_request"`
	MaxCostPerDay       float64           `yaml:"max_cost_per_day"`
	Instructions        string            `yaml:"instructions"`
}

// AllowsTool reports whether the tool name is on the agent's allowlist.
func (a *AgentConfig) AllowsTool(name string) bool {
	for _, t := range a.AllowedTools {
		if t == name {
			return true
		}
	}
	return false
}

// HasCapability reports whether the agent is granted the capability.
func (a *AgentConfig) HasCapability(c core.Capability) bool {
	for _, ac := range a.AllowedCapabilities {
		if ac == c {
			return true
		}
	}
	return false
}

// LLMProviderConfig configures a single upstream LLM provider.
type LLMProviderConfig struct {
	APIKey        string   `yaml:"api_key"`
	BaseURL       string   `yaml:"base_url"`
	AllowedModels []string `yaml:"allowed_models"`
}

// AllowsModel reports whether the model is on the provider's allowlist.
func (p *LLMProviderConfig) AllowsModel(model string) bool {
	for _, m := range p.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// LLMConfig groups the provider map under the llm: key.
type LLMConfig struct {
	Providers map[string]*LLMProviderConfig `yaml:"providers"`
}

// Config is the full configuration snapshot loaded at startup.
type Config struct {
	Server         ServerConfig            `yaml:"server"`
	Agents         map[string]*AgentConfig `yaml:"agents"`
	EnabledPlugins []string                `yaml:"enabled_plugins"`
	LLM            LLMConfig               `yaml:"llm"`
	RedactPatterns []string                `yaml:"redact_patterns"`
}

// Agent returns the config for an agent ID, or nil if unknown.
func (c *Config) Agent(agentID string) *AgentConfig {
	return c.Agents[agentID]
}

// AgentPolicies renders the per-agent enforcement snapshots consumed by the
// policy engine.
func (c *Config) AgentPolicies() map[string]*core.AgentPolicy {
	policies := make(map[string]*core.AgentPolicy, len(c.Agents))
	for agentID, agent := range c.Agents {
		policies[agentID] = &core.AgentPolicy{
			AllowedTools:        agent.AllowedTools,
			AllowedCapabilities: agent.AllowedCapabilities,
			EgressAllowlist:     agent.EgressAllowlist,
			MaxPayloadBytes:     agent.MaxPayloadBytes,
			RateLimit:           agent.RateLimit,
			MaxCostPerDay:       agent.MaxCostPerDay,
		}
	}
	return policies
}

// TokenEntries renders the token table consumed by the auth resolver.
func (c *Config) TokenEntries() []core.TokenEntry {
	entries := make([]core.TokenEntry, 0, len(c.Agents))
	for agentID, agent := range c.Agents {
		entries = append(entries, core.TokenEntry{
			Token: agent.Token,
			Identity: core.AgentIdentity{
				AgentID:  agentID,
				TenantID: agent.TenantID,
			},
		})
	}
	return entries
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Name:        "toolgate",
			Version:     "0.1.0",
			Description: "Remote tool-serving gateway for multi-agent assistants",
		},
		Agents:         map[string]*AgentConfig{},
		EnabledPlugins: []string{"core.echo", "core.sum"},
		LLM:            LLMConfig{Providers: map[string]*LLMProviderConfig{}},
		RedactPatterns: append([]string(nil), DefaultRedactPatterns...),
	}
}

// envPattern matches ${VAR} references with POSIX-style variable names.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with values from the process
// environment. Unset variables expand to the empty string.
func expandEnv(raw []byte) []byte {
	return envPattern.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads the YAML configuration at path. A missing file or an empty
// document yields the defaults. Parse failures, unknown capability tags, and
// duplicate tokens are startup errors.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(expandEnv(raw), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills zero-valued quota fields on every agent entry.
func (c *Config) applyDefaults() {
	if c.Agents == nil {
		c.Agents = map[string]*AgentConfig{}
	}
	if c.LLM.Providers == nil {
		c.LLM.Providers = map[string]*LLMProviderConfig{}
	}
	if len(c.RedactPatterns) == 0 {
		c.RedactPatterns = append([]string(nil), DefaultRedactPatterns...)
	}
	for _, agent := range c.Agents {
		if agent.TenantID == "" {
			agent.TenantID = "default"
		}
		if agent.MaxPayloadBytes == 0 {
			agent.MaxPayloadBytes = DefaultMaxPayloadBytes
		}
		if agent.MaxResponseBytes == 0 {
			agent.MaxResponseBytes = DefaultMaxResponseBytes
		}
		if agent.TimeoutSeconds == 0 {
			agent.TimeoutSeconds = DefaultTimeoutSeconds
		}
		if agent.Concurrency == 0 {
			agent.Concurrency = DefaultConcurrency
		}
		if agent.RateLimit == 0 {
			agent.RateLimit = DefaultRateLimit
		}
		if agent.MaxTokensPerRequest == 0 {
			agent.MaxTokensPerRequest = DefaultMaxTokensPerRequest
		}
		if agent.MaxCostPerDay == 0 {
			agent.MaxCostPerDay = DefaultMaxCostPerDay
		}
	}
}

// validate enforces the invariants the rest of the gateway relies on:
// unique tokens across agents and capability tags from the closed set.
func (c *Config) validate() error {
	seen := make(map[string]string, len(c.Agents))
	for agentID, agent := range c.Agents {
		if agent.Token == "" {
			return fmt.Errorf("agent %q has no token", agentID)
		}
		if other, dup := seen[agent.Token]; dup {
			return fmt.Errorf("agents %q and %q share the same token", other, agentID)
		}
		seen[agent.Token] = agentID

		for _, cap := range agent.AllowedCapabilities {
			if _, err := core.ParseCapability(string(cap)); err != nil {
				return fmt.Errorf("agent %q: %w", agentID, err)
			}
		}
	}
	for _, pattern := range c.RedactPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("redact pattern %q: %w", pattern, err)
		}
	}
	return nil
}
