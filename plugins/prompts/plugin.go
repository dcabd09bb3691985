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

// Package prompts implements the built-in prompt templates: review_pr
// (structured code review) and tool_usage (safe tool usage guidelines).
package prompts

import (
	"context"
	"strings"

	"toolgate/gateway/core"
	"toolgate/gateway/plugins/base"
)

const reviewPRTemplate = `You are a senior software engineer performing a code review.

## Diff to review:
` + "```{language}\n{diff}\n```" + `

## Instructions:
1. Identify bugs, security issues, and performance problems.
2. Check for adherence to coding standards and best practices.
3. Suggest concrete improvements with code examples where appropriate.
4. Note any missing error handling or edge cases.
5. Comment on code readability and maintainability.

Provide your review as a structured list of findings, each with:
- **Severity**: critical / warning / suggestion
- **Location**: file and line if identifiable
- **Issue**: description
- **Fix**: recommended change
`

// ReviewPRPlugin implements base.PromptPlugin for review_pr.
type ReviewPRPlugin struct{}

// NewReviewPR returns the review_pr prompt.
func NewReviewPR() *ReviewPRPlugin {
	return &ReviewPRPlugin{}
}

// Manifest implements base.PromptPlugin.
func (p *ReviewPRPlugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "prompt.review_pr",
		Title:       "Review PR",
		Description: "Code review prompt: provide a diff and language to get structured feedback.",
	}
}

// PromptName implements base.PromptPlugin.
func (p *ReviewPRPlugin) PromptName() string {
	return "review_pr"
}

// Arguments implements base.PromptPlugin.
func (p *ReviewPRPlugin) Arguments() []base.PromptArgument {
	return []base.PromptArgument{
		{Name: "diff", Description: "The code diff to review", Required: true},
		{Name: "language", Description: "Programming language (e.g. python, typescript)", Required: false},
	}
}

// Render implements base.PromptPlugin.
func (p *ReviewPRPlugin) Render(ctx context.Context, args map[string]string) (string, error) {
	out := strings.ReplaceAll(reviewPRTemplate, "{diff}", args["diff"])
	out = strings.ReplaceAll(out, "{language}", args["language"])
	return out, nil
}

const toolUsageTemplate = `## Safe Tool Usage Guidelines

You are using tools provided by an MCP server with security policies enforced per-agent.

### General Rules:
1. **Least privilege**: Only call tools you need. Don't explore tools outside your task scope.
2. **Input validation**: Always validate and sanitize inputs before passing to tools.
3. **Error handling**: Handle tool errors gracefully — do not retry failed calls in a tight loop.
4. **Rate awareness**: Be mindful of rate limits. Batch operations when possible.

### LLM Query (` + "`llm.query`" + `) Guidelines:
1. Keep prompts concise. Avoid pasting entire repositories or large codebases.
2. Use the appropriate model for the task (smaller models for simple tasks).
3. Set ` + "`max_tokens`" + ` to the minimum needed — it affects budget consumption.
4. Never include secrets, API keys, or credentials in prompts.

### Network-Aware Tools:
1. Only configured egress hosts are reachable — check your ` + "`about://policies`" + ` resource.
2. Timeouts are enforced per-agent. Long-running queries may be terminated.

### Budget Awareness:
1. LLM usage is tracked per-agent with daily cost limits.
2. Check ` + "`about://policies`" + ` to see your remaining budget.
3. Prefer cheaper models when the task doesn't require advanced reasoning.

{context}`

// ToolUsagePlugin implements base.PromptPlugin for tool_usage.
type ToolUsagePlugin struct{}

// NewToolUsage returns the tool_usage prompt.
func NewToolUsage() *ToolUsagePlugin {
	return &ToolUsagePlugin{}
}

// Manifest implements base.PromptPlugin.
func (p *ToolUsagePlugin) Manifest() core.PluginManifest {
	return core.PluginManifest{
		Name:        "prompt.tool_usage",
		Title:       "Tool Usage",
		Description: "Guidelines for safe and efficient tool usage on this MCP server.",
	}
}

// PromptName implements base.PromptPlugin.
func (p *ToolUsagePlugin) PromptName() string {
	return "tool_usage"
}

// Arguments implements base.PromptPlugin.
func (p *ToolUsagePlugin) Arguments() []base.PromptArgument {
	return []base.PromptArgument{
		{Name: "context", Description: "Additional context or task-specific notes", Required: false},
	}
}

// Render implements base.PromptPlugin.
func (p *ToolUsagePlugin) Render(ctx context.Context, args map[string]string) (string, error) {
	return strings.ReplaceAll(toolUsageTemplate, "{context}", args["context"]), nil
}
