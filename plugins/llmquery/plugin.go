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

// Package llmquery implements llm.query, the LLM router tool. A query walks
// the full enforcement pipeline: egress allowlist for the provider host,
// provider and model allowlists, the repo-paste input guard, a max_tokens
// clamp, and finally budget recording on success.
package llmquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
	"toolgate/gateway/egress"
	"toolgate/gateway/llm"
	"toolgate/gateway/llm/anthropic"
	"toolgate/gateway/llm/local"
	"toolgate/gateway/llm/openai"
	"toolgate/gateway/plugins/base"
)

// defaultMaxTokens applies when the caller omits max_tokens.
const defaultMaxTokens = 1024

// CostRecorder observes realised LLM spend per agent. The gateway wires one
// that feeds the cost counter.
type CostRecorder func(agentID string, cost float64)

// Plugin implements base.ToolPlugin for llm.query.
type Plugin struct {
	cfg        *config.Config
	policy     *core.PolicyEngine
	providers  map[string]llm.Provider
	recordCost CostRecorder
	log        zerolog.Logger
}

// New builds the router from the configured providers. Each provider gets
// its own egress-guarded HTTP client. recordCost may be nil.
func New(cfg *config.Config, policy *core.PolicyEngine, recordCost CostRecorder, log zerolog.Logger) *Plugin {
	p := &Plugin{
		cfg:        cfg,
		policy:     policy,
		providers:  make(map[string]llm.Provider),
		recordCost: recordCost,
		log:        log,
	}
	p.initProviders()
	return p
}

func (p *Plugin) initProviders() {
	for name, pcfg := range p.cfg.LLM.Providers {
		var prov llm.Provider
		switch name {
		case "openai":
			prov = openai.NewProvider(openai.Config{
				APIKey:  pcfg.APIKey,
				BaseURL: pcfg.BaseURL,
			})
		case "anthropic":
			prov = anthropic.NewProvider(anthropic.Config{
				APIKey:  pcfg.APIKey,
				BaseURL: pcfg.BaseURL,
			})
		case "local":
			prov = local.NewProvider(local.Config{BaseURL: pcfg.BaseURL})
		default:
			p.log.Warn().Str("provider", name).Msg("Unknown LLM provider in config, skipping")
			continue
		}
		p.providers[name] = p.guard(name, pcfg, prov)
	}
}

// guard rebuilds the provider with an egress-guarded client. Cloud providers
// are pinned to their canonical API host even when base_url is overridden;
// the local provider is guarded to its configured host.
func (p *Plugin) guard(name string, pcfg *config.LLMProviderConfig, prov llm.Provider) llm.Provider {
	switch name {
	case "openai":
		return openai.NewProvider(openai.Config{
			APIKey:  pcfg.APIKey,
			BaseURL: pcfg.BaseURL,
			Client:  egress.NewGuardedClient(nil, []string{"api.openai.com"}),
		})
	case "anthropic":
		return anthropic.NewProvider(anthropic.Config{
			APIKey:  pcfg.APIKey,
			BaseURL: pcfg.BaseURL,
			Client:  egress.NewGuardedClient(nil, []string{"api.anthropic.com"}),
		})
	default:
		return local.NewProvider(local.Config{
			BaseURL: pcfg.BaseURL,
			Client:  egress.NewGuardedClient(nil, []string{prov.Host()}),
		})
	}
}

// Manifest implements base.ToolPlugin.
func (p *Plugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:  "llm.query",
		Title: "LLM Query",
		Description: "Route queries to LLM providers (OpenAI, Anthropic, local). " +
			"Requires network:outbound and llm:query capabilities.",
		Capabilities: []core.Capability{
			core.CapabilityNetworkOutbound,
			core.CapabilityLLMQuery,
		},
	}
}

// InputSchema implements base.ToolPlugin.
func (p *Plugin) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"provider": map[string]any{
				"type":        "string",
				"description": "LLM provider: 'openai', 'anthropic', or 'local'",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model name (must be on allowlist)",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "The prompt to send to the LLM",
			},
			"max_tokens": map[string]any{
				"type":        "integer",
				"description": "Maximum tokens in response",
				"default":     defaultMaxTokens,
			},
		},
		"required":             []any{"provider", "model", "prompt"},
		"additionalProperties": false,
	}
}

// Execute implements base.ToolPlugin. Pipeline failures are reported as JSON
// error bodies in the result text, not as Go errors: a denied or failed
// query is a normal outcome for the calling agent.
func (p *Plugin) Execute(ctx context.Context, tc base.ToolContext, args map[string]any) (string, error) {
	providerName, _ := args["provider"].(string)
	model, _ := args["model"].(string)
	prompt, _ := args["prompt"].(string)
	maxTokens := defaultMaxTokens
	if v, ok := args["max_tokens"].(float64); ok {
		maxTokens = int(v)
	}

	identity := tc.Identity
	agent := p.cfg.Agent(identity.AgentID)
	if agent == nil {
		return jsonError(fmt.Sprintf("Unknown agent: %s", identity.AgentID)), nil
	}

	egressDecision := p.policy.CheckEgress(identity, p.providerHost(providerName))
	if !egressDecision.Allowed {
		return jsonErrorReasons("Egress denied", egressDecision.Reasons), nil
	}

	provider, ok := p.providers[providerName]
	if !ok {
		return jsonError(fmt.Sprintf("Unknown provider: %s", providerName)), nil
	}

	pcfg := p.cfg.LLM.Providers[providerName]
	if pcfg == nil || !pcfg.AllowsModel(model) {
		return jsonError(fmt.Sprintf(
			"Model '%s' is not on the allowlist for provider '%s'", model, providerName)), nil
	}

	if guardReasons := checkInput(prompt); len(guardReasons) > 0 {
		return jsonErrorReasons("Input rejected", guardReasons), nil
	}

	if maxTokens > agent.MaxTokensPerRequest {
		maxTokens = agent.MaxTokensPerRequest
	}

	response, err := provider.Query(ctx, model, prompt, maxTokens)
	if err != nil {
		p.log.Warn().Err(err).
			Str("provider", providerName).
			Str("model", model).
			Msg("LLM query failed")
		return jsonError(fmt.Sprintf("LLM query failed: %v", err)), nil
	}

	// Charge only realised cost, only after success.
	if response.EstimatedCost > 0 {
		p.policy.Budget().Record(identity.AgentID, response.EstimatedCost)
		if p.recordCost != nil {
			p.recordCost(identity.AgentID, response.EstimatedCost)
		}
	}

	out, merr := json.Marshal(map[string]any{
		"text":           response.Text,
		"model":          response.Model,
		"usage":          response.Usage,
		"estimated_cost": response.EstimatedCost,
	})
	if merr != nil {
		return "", merr
	}
	return string(out), nil
}

// Close releases the provider connections.
func (p *Plugin) Close() error {
	for _, prov := range p.providers {
		prov.Close()
	}
	return nil
}

// providerHost maps a provider name to the hostname checked against the
// agent's egress allowlist. The local provider's host comes from its
// configured base URL.
func (p *Plugin) providerHost(providerName string) string {
	switch providerName {
	case "openai":
		return "api.openai.com"
	case "anthropic":
		return "api.anthropic.com"
	case "local":
		baseURL := "http://localhost:11434"
		if pcfg := p.cfg.LLM.Providers["local"]; pcfg != nil && pcfg.BaseURL != "" {
			baseURL = pcfg.BaseURL
		}
		if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
		return "localhost"
	default:
		return "unknown"
	}
}

func jsonError(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

func jsonErrorReasons(msg string, reasons []string) string {
	out, _ := json.Marshal(map[string]any{"error": msg, "reasons": reasons})
	return string(out)
}
