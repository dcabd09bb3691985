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

// Package egress provides the guarded HTTP client every outbound-capable
// tool must use. The guard checks the destination hostname against a fixed
// allowlist before any connection is opened; a denied request performs no
// network I/O at all.
package egress

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EgressDeniedError is returned when a request targets a host outside the
// allowlist. It is a typed error so callers can distinguish policy denials
// from transport failures.
type EgressDeniedError struct {
	Host      string
	Allowlist []string
}

func (e *EgressDeniedError) Error() string {
	return fmt.Sprintf("egress to host %q denied (allowlist: %v)", e.Host, e.Allowlist)
}

// GuardedClient wraps an http.Client with a hostname allowlist. Matching is
// exact and case-insensitive on the URL hostname; ports, schemes, and paths
// do not participate. No wildcard or suffix matching.
type GuardedClient struct {
	client    *http.Client
	allowlist []string
}

// NewGuardedClient builds a guard around client. A nil client uses
// http.DefaultClient. The allowlist is copied.
func NewGuardedClient(client *http.Client, allowlist []string) *GuardedClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &GuardedClient{
		client:    client,
		allowlist: append([]string(nil), allowlist...),
	}
}

// Allowed reports whether the hostname passes the allowlist.
func (g *GuardedClient) Allowed(host string) bool {
	h := strings.ToLower(host)
	for _, a := range g.allowlist {
		if strings.ToLower(a) == h {
			return true
		}
	}
	return false
}

// Do checks the request hostname against the allowlist, then delegates to
// the underlying client. On denial it returns *EgressDeniedError without
// touching the network.
func (g *GuardedClient) Do(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()
	if !g.Allowed(host) {
		return nil, &EgressDeniedError{
			Host:      host,
			Allowlist: append([]string(nil), g.allowlist...),
		}
	}
	return g.client.Do(req)
}

// Get issues a guarded GET request.
func (g *GuardedClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return g.Do(req)
}

// Post issues a guarded POST request.
func (g *GuardedClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return g.Do(req)
}
