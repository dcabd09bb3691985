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

package egress

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransport fails the test if any request reaches the network layer.
type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("transport reached")
}

func TestDeniedHostPerformsNoIO(t *testing.T) {
	transport := &countingTransport{}
	client := NewGuardedClient(&http.Client{Transport: transport}, []string{"api.openai.com"})

	_, err := client.Get("https://evil.example.com/steal")
	require.Error(t, err)

	var denied *EgressDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "evil.example.com", denied.Host)
	assert.Equal(t, []string{"api.openai.com"}, denied.Allowlist)
	assert.Equal(t, 0, transport.calls, "denied request must not touch the transport")
}

func TestAllowedHostPasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client := NewGuardedClient(srv.Client(), []string{u.Hostname()})
	resp, err := client.Get(srv.URL + "/anything")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHostMatchIsCaseInsensitive(t *testing.T) {
	client := NewGuardedClient(nil, []string{"API.OpenAI.com"})
	assert.True(t, client.Allowed("api.openai.com"))
	assert.True(t, client.Allowed("API.OPENAI.COM"))
}

func TestNoSuffixOrWildcardMatching(t *testing.T) {
	client := NewGuardedClient(nil, []string{"api.openai.com"})
	assert.False(t, client.Allowed("evil.api.openai.com"))
	assert.False(t, client.Allowed("openai.com"))
	assert.False(t, client.Allowed(""))
}

func TestPortDoesNotParticipate(t *testing.T) {
	transport := &countingTransport{}
	client := NewGuardedClient(&http.Client{Transport: transport}, []string{"example.com"})

	// Hostname matches regardless of the port; the transport error proves
	// the request passed the guard.
	_, err := client.Get("http://example.com:8443/x")
	require.Error(t, err)
	var denied *EgressDeniedError
	assert.False(t, errors.As(err, &denied))
	assert.Equal(t, 1, transport.calls)
}

func TestPostDenied(t *testing.T) {
	transport := &countingTransport{}
	client := NewGuardedClient(&http.Client{Transport: transport}, nil)

	_, err := client.Post("https://example.com/x", "application/json", nil)
	var denied *EgressDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, 0, transport.calls)
}
