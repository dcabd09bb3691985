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

// Package echo implements core.echo, the minimal diagnostic tool: it
// returns its input text unchanged.
package echo

import (
	"context"
	"fmt"

	"toolgate/gateway/core"
	"toolgate/gateway/plugins/base"
)

// Plugin implements base.ToolPlugin.
type Plugin struct{}

// New returns the echo tool.
func New() *Plugin {
	return &Plugin{}
}

// Manifest implements base.ToolPlugin. Echo requires no capabilities.
func (p *Plugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "core.echo",
		Title:       "Echo",
		Description: "Returns the input text unchanged.",
	}
}

// InputSchema implements base.ToolPlugin.
func (p *Plugin) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to echo back",
			},
		},
		"required":             []any{"text"},
		"additionalProperties": false,
	}
}

// Execute implements base.ToolPlugin.
func (p *Plugin) Execute(ctx context.Context, tc base.ToolContext, args map[string]any) (string, error) {
	text, ok := args["text"].(string)
	if !ok {
		return "", fmt.Errorf("text must be a string")
	}
	return text, nil
}
