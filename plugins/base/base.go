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

// Package base defines the plugin contracts the registry loads: tools,
// resources, and prompts. A plugin declares its capabilities in its manifest;
// it never checks policy itself — the gateway has already decided by the
// time Execute runs.
package base

import (
	"context"

	"toolgate/gateway/core"
)

// ToolContext carries per-call information into a tool execution.
type ToolContext struct {
	// Identity is the authenticated caller.
	Identity core.AgentIdentity

	// RawArguments is the marshalled argument object, available for
	// payload-sensitive tools.
	RawArguments []byte
}

// ToolPlugin is an executable tool exposed over tools/list and tools/call.
type ToolPlugin interface {
	// Manifest returns the static self-description, including required
	// capabilities.
	Manifest() core.PluginManifest

	// InputSchema returns the JSON Schema for the tool's arguments. The
	// registry compiles it at load time and the gateway validates every
	// call against it.
	InputSchema() map[string]any

	// Execute runs the tool and returns its text result. Errors are
	// reported to the caller with the error message as the result text.
	Execute(ctx context.Context, tc ToolContext, args map[string]any) (string, error)
}

// ResourcePlugin is a readable resource exposed over resources/list and
// resources/read.
type ResourcePlugin interface {
	Manifest() core.PluginManifest

	// URI returns the stable resource URI, e.g. "about://server".
	URI() string

	// Read renders the resource for the calling agent.
	Read(ctx context.Context, identity core.AgentIdentity) (string, error)
}

// PromptArgument describes one argument a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// PromptPlugin is a prompt template exposed over prompts/list and
// prompts/get.
type PromptPlugin interface {
	Manifest() core.PluginManifest

	// PromptName returns the name used in prompts/get requests.
	PromptName() string

	// Arguments lists the accepted template arguments.
	Arguments() []PromptArgument

	// Render produces the prompt text for the given arguments.
	Render(ctx context.Context, args map[string]string) (string, error)
}
