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

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMissingAPIKey(t *testing.T) {
	p := NewProvider(Config{})

	resp, err := p.Query(context.Background(), "gpt-4o", "hi", 100)
	require.NoError(t, err)
	assert.Equal(t, "Error: openai API key is not configured on the gateway", resp.Text)
	assert.Zero(t, resp.EstimatedCost)
}

func TestQuerySuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o",
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1500, "completion_tokens": 500, "total_tokens": 2000}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	resp, err := p.Query(context.Background(), "gpt-4o", "say hello", 256)
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotReq.Model)
	assert.Equal(t, 256, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)

	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, 2000, resp.Usage["total_tokens"])
	assert.InDelta(t, 0.01, resp.EstimatedCost, 1e-9)
}

func TestQueryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_exceeded", "message": "slow down"}}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL})

	_, err := p.Query(context.Background(), "gpt-4o", "hi", 100)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsRateLimitError())
	assert.False(t, apiErr.IsAuthError())
	assert.Contains(t, apiErr.Error(), "slow down")
}

func TestQueryUnparseableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL})

	_, err := p.Query(context.Background(), "gpt-4o", "hi", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
