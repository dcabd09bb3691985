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

// Package sum implements core.sum, which adds two numbers.
package sum

import (
	"context"
	"fmt"
	"strconv"

	"toolgate/gateway/core"
	"toolgate/gateway/plugins/base"
)

// Plugin implements base.ToolPlugin.
type Plugin struct{}

// New returns the sum tool.
func New() *Plugin {
	return &Plugin{}
}

// Manifest implements base.ToolPlugin. Sum requires no capabilities.
func (p *Plugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "core.sum",
		Title:       "Sum",
		Description: "Returns the sum of two numbers.",
	}
}

// InputSchema implements base.ToolPlugin.
func (p *Plugin) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{
				"type":        "number",
				"description": "First number",
			},
			"b": map[string]any{
				"type":        "number",
				"description": "Second number",
			},
		},
		"required":             []any{"a", "b"},
		"additionalProperties": false,
	}
}

// Execute implements base.ToolPlugin. Whole results are formatted without a
// decimal point.
func (p *Plugin) Execute(ctx context.Context, tc base.ToolContext, args map[string]any) (string, error) {
	a, err := asNumber(args["a"])
	if err != nil {
		return "", fmt.Errorf("a %w", err)
	}
	b, err := asNumber(args["b"])
	if err != nil {
		return "", fmt.Errorf("b %w", err)
	}

	result := a + b
	if result == float64(int64(result)) {
		return strconv.FormatInt(int64(result), 10), nil
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

// asNumber accepts the numeric shapes a decoded JSON argument can take.
func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}
