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

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"toolgate/gateway/core"
)

type contextKey string

// identityKey stores the authenticated AgentIdentity in the request context.
const identityKey contextKey = "agent_identity"

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (core.AgentIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(core.AgentIdentity)
	return identity, ok
}

// withIdentity returns a context carrying the identity. Exported to tests
// through the wrapper's behavior, not directly.
func withIdentity(ctx context.Context, identity core.AgentIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// AuthMiddleware parses the Authorization header exactly once per request,
// resolves the bearer token, and stores the identity in the request context.
// Failures are 401 with a JSON error body; token values are never logged.
func AuthMiddleware(resolver *core.AuthResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if header == "" || !strings.HasPrefix(header, prefix) {
				writeJSONError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}
			token := strings.TrimPrefix(header, prefix)

			identity, ok := resolver.Resolve(token)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// writeJSONError writes a {"error": ...} body with the given status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
