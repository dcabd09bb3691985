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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
	"toolgate/gateway/plugins/base"
	"toolgate/gateway/plugins/registry"
)

// Invoker is the only path from the transport to a tool's Execute. Every
// call passes authentication context extraction, policy evaluation, schema
// validation, the per-agent concurrency gate, and the per-agent timeout
// before the plugin runs.
type Invoker struct {
	cfg      *config.Config
	policy   *core.PolicyEngine
	registry *registry.Registry
	gates    *core.ConcurrencyLimiter
	metrics  *Metrics
	log      zerolog.Logger
}

// NewInvoker wires the tool-call pipeline.
func NewInvoker(cfg *config.Config, policy *core.PolicyEngine, reg *registry.Registry, metrics *Metrics, log zerolog.Logger) *Invoker {
	return &Invoker{
		cfg:      cfg,
		policy:   policy,
		registry: reg,
		gates:    core.NewConcurrencyLimiter(),
		metrics:  metrics,
		log:      log,
	}
}

// Invoke runs one tool call. The returned text is the result body; isError
// reports whether it is a structured error rather than a tool result.
// Policy denials, validation failures, and execution errors are all normal
// outcomes delivered to the caller, never transport failures.
func (inv *Invoker) Invoke(ctx context.Context, toolName string, args map[string]any) (text string, isError bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return errorBody("Not authenticated", nil), true
	}

	tool, ok := inv.registry.Tool(toolName)
	if !ok {
		return errorBody(fmt.Sprintf("Unknown tool: %s", toolName), nil), true
	}
	manifest := tool.Plugin.Manifest()

	if args == nil {
		args = map[string]any{}
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return errorBody(fmt.Sprintf("Invalid arguments: %v", err), nil), true
	}

	decision := inv.policy.CheckToolCall(identity, manifest, len(rawArgs))
	if !decision.Allowed {
		inv.metrics.PolicyDenials.WithLabelValues(identity.AgentID).Inc()
		inv.metrics.ToolCalls.WithLabelValues(toolName, "denied").Inc()
		return errorBody("Policy denied", decision.Reasons), true
	}

	if err := tool.Schema.Validate(normalize(args)); err != nil {
		inv.metrics.ToolCalls.WithLabelValues(toolName, "invalid").Inc()
		return errorBody(err.Error(), nil), true
	}

	agent := inv.cfg.Agent(identity.AgentID)
	gate := inv.gates.Gate(identity.AgentID, agent.Concurrency)
	select {
	case gate <- struct{}{}:
		defer func() { <-gate }()
	case <-ctx.Done():
		inv.metrics.ToolCalls.WithLabelValues(toolName, "error").Inc()
		return errorBody(ctx.Err().Error(), nil), true
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(agent.TimeoutSeconds)*time.Second)
	defer cancel()

	requestID := uuid.NewString()
	tc := base.ToolContext{Identity: identity, RawArguments: rawArgs}

	result, err := tool.Plugin.Execute(callCtx, tc, args)
	if err != nil {
		inv.metrics.ToolCalls.WithLabelValues(toolName, "error").Inc()
		inv.log.Error().Err(err).
			Str("agent_id", identity.AgentID).
			Str("tool", toolName).
			Str("request_id", requestID).
			Msg("Tool execution error")
		return errorBody(err.Error(), nil), true
	}

	inv.metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
	inv.log.Info().
		Str("agent_id", identity.AgentID).
		Str("tool", toolName).
		Str("request_id", requestID).
		Msg("Tool call success")
	return result, false
}

// errorBody renders a structured error result.
func errorBody(msg string, reasons []string) string {
	body := map[string]any{"error": msg}
	if len(reasons) > 0 {
		body["reasons"] = reasons
	}
	out, _ := json.Marshal(body)
	return string(out)
}

// normalize round-trips the argument map through JSON so the schema
// validator sees the canonical decoded shapes (float64 numbers, []any
// arrays) regardless of how the transport decoded them.
func normalize(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return args
	}
	return out
}
