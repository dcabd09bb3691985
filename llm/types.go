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

// Package llm defines the provider abstraction used by the gateway's LLM
// router and the registry that maps configured provider names to concrete
// HTTP adapters.
package llm

import "context"

// Response is a normalized completion response from any provider.
type Response struct {
	Text          string         `json:"text"`
	Model         string         `json:"model"`
	Usage         map[string]int `json:"usage"`
	EstimatedCost float64        `json:"estimated_cost"`
}

// Provider is a single upstream LLM backend. Implementations are safe for
// concurrent use.
type Provider interface {
	// ProviderName returns the stable name used in configuration and
	// pricing lookups ("openai", "anthropic", "local").
	ProviderName() string

	// Host returns the hostname the provider connects to, checked against
	// the agent's egress allowlist before any query is attempted.
	Host() string

	// Query runs a single-turn completion. A missing API key is reported
	// through the Response text with a zero cost, not as an error, so the
	// caller can surface it to the agent without charging budget.
	Query(ctx context.Context, model, prompt string, maxTokens int) (*Response, error)

	// Close releases any held connections.
	Close()
}
