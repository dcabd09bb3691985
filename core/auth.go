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

package core

import "crypto/subtle"

// TokenEntry pairs one pre-shared bearer token with the identity it grants.
// The config loader guarantees tokens are unique across agents.
type TokenEntry struct {
	Token    string
	Identity AgentIdentity
}

// AuthResolver maps pre-shared bearer tokens to agent identities. Tokens
// are opaque strings configured at startup.
//
// Resolve never logs tokens or token prefixes.
type AuthResolver struct {
	entries []tokenEntry
}

type tokenEntry struct {
	token    []byte
	identity AgentIdentity
}

// NewAuthResolver builds the token table. Entries with an empty token are
// skipped (they can never authenticate).
func NewAuthResolver(entries []TokenEntry) *AuthResolver {
	table := make([]tokenEntry, 0, len(entries))
	for _, e := range entries {
		if e.Token == "" {
			continue
		}
		table = append(table, tokenEntry{
			token:    []byte(e.Token),
			identity: e.Identity,
		})
	}
	return &AuthResolver{entries: table}
}

// Resolve returns the identity for a bearer token, or false for empty or
// unknown tokens. The probe is compared against every stored token with a
// constant-time comparison; there is deliberately no early return on match,
// so resolution time does not depend on which (if any) token matches.
func (a *AuthResolver) Resolve(token string) (AgentIdentity, bool) {
	if token == "" {
		return AgentIdentity{}, false
	}
	probe := []byte(token)

	var matched AgentIdentity
	found := false
	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(e.token, probe) == 1 {
			matched = e.identity
			found = true
		}
	}
	return matched, found
}
