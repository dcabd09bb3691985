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

package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMissingAPIKey(t *testing.T) {
	p := NewProvider(Config{})

	resp, err := p.Query(context.Background(), "claude-sonnet-4-20250514", "hi", 100)
	require.NoError(t, err)
	assert.Equal(t, "Error: anthropic API key is not configured on the gateway", resp.Text)
	assert.Zero(t, resp.EstimatedCost)
}

func TestQueryJoinsTextBlocks(t *testing.T) {
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		assert.Equal(t, "/v1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [
				{"type": "text", "text": "first"},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": "second"}
			],
			"usage": {"input_tokens": 700, "output_tokens": 300}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-ant-test", BaseURL: srv.URL + "/v1"})

	resp, err := p.Query(context.Background(), "claude-sonnet-4-20250514", "hi", 256)
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, DefaultAPIVersion, gotVersion)

	assert.Equal(t, "first\nsecond", resp.Text)
	assert.Equal(t, 700, resp.Usage["input_tokens"])
	assert.Equal(t, 300, resp.Usage["output_tokens"])
	assert.Equal(t, 1000, resp.Usage["total_tokens"])
	assert.NotContains(t, resp.Usage, "prompt_tokens")
	// 1000 tokens of claude-sonnet-4-20250514 at $0.006/1K.
	assert.InDelta(t, 0.006, resp.EstimatedCost, 1e-9)
}

func TestQueryOverloadedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "try later"}}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})

	_, err := p.Query(context.Background(), "claude-sonnet-4-20250514", "hi", 100)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsOverloadedError())
	assert.False(t, apiErr.IsRateLimitError())
}
