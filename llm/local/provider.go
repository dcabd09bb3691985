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

// Package local provides the LLM provider adapter for self-hosted Ollama
// endpoints. Queries to a local provider carry no cost and never touch the
// budget.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"toolgate/gateway/llm"
)

const (
	// DefaultBaseURL points at an Ollama server on the local host.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout is the default HTTP timeout. Local models on modest
	// hardware can be slow, so this is generous.
	DefaultTimeout = 300 * time.Second
)

// HTTPClient is the subset of http.Client the provider uses (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider implements llm.Provider against the Ollama generate API.
type Provider struct {
	baseURL string
	client  HTTPClient
}

// Config contains configuration for the local provider.
type Config struct {
	BaseURL string        // Optional: endpoint base URL (default: http://localhost:11434)
	Timeout time.Duration // Optional: HTTP timeout (default: 300s)
	Client  HTTPClient    // Optional: HTTP client, typically an egress-guarded one
}

// NewProvider creates a local provider instance.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Provider{
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
	}
}

// ProviderName implements llm.Provider.
func (p *Provider) ProviderName() string {
	return "local"
}

// Host implements llm.Provider.
func (p *Provider) Host() string {
	if u, err := url.Parse(p.baseURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "localhost"
}

// Query implements llm.Provider. EstimatedCost is always zero for local
// models.
func (p *Provider) Query(ctx context.Context, model, prompt string, maxTokens int) (*llm.Response, error) {
	apiReq := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict: maxTokens,
		},
	}
	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("local LLM error: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("local LLM error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	respModel := apiResp.Model
	if respModel == "" {
		respModel = model
	}

	return &llm.Response{
		Text:  apiResp.Response,
		Model: respModel,
		Usage: map[string]int{
			"total_tokens": apiResp.PromptEvalCount + apiResp.EvalCount,
		},
	}, nil
}

// Close implements llm.Provider.
func (p *Provider) Close() {}

// Internal API types (Ollama generate wire format).

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}
