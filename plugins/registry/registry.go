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

// Package registry loads the enabled plugins from a compile-time factory
// table and indexes them by kind: tools by name, resources by URI, prompts
// by prompt name. Tool input schemas are compiled once at load time.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
	"toolgate/gateway/plugins/about"
	"toolgate/gateway/plugins/base"
	"toolgate/gateway/plugins/echo"
	"toolgate/gateway/plugins/instructions"
	"toolgate/gateway/plugins/llmquery"
	"toolgate/gateway/plugins/prompts"
	"toolgate/gateway/plugins/sum"
)

// Deps is what a plugin factory may draw on. RecordCost, when set, observes
// realised LLM spend per agent.
type Deps struct {
	Config     *config.Config
	Policy     *core.PolicyEngine
	RecordCost llmquery.CostRecorder
	Log        zerolog.Logger
}

// Factory builds one plugin instance. The returned value must implement
// exactly one of the base plugin interfaces.
type Factory func(Deps) (any, error)

// factories is the compile-time plugin table. Plugins are enabled per
// deployment through the enabled_plugins config key.
var factories = map[string]Factory{
	"core.echo": func(Deps) (any, error) { return echo.New(), nil },
	"core.sum":  func(Deps) (any, error) { return sum.New(), nil },
	"llm.query": func(d Deps) (any, error) {
		return llmquery.New(d.Config, d.Policy, d.RecordCost, d.Log), nil
	},
	"about.server": func(d Deps) (any, error) {
		return about.NewServer(d.Config), nil
	},
	"about.policies": func(d Deps) (any, error) {
		return about.NewPolicies(d.Config), nil
	},
	"instructions.agent": func(d Deps) (any, error) {
		return instructions.New(d.Config), nil
	},
	"prompt.review_pr": func(Deps) (any, error) {
		return prompts.NewReviewPR(), nil
	},
	"prompt.tool_usage": func(Deps) (any, error) {
		return prompts.NewToolUsage(), nil
	},
}

// Tool pairs a loaded tool plugin with its compiled input schema.
type Tool struct {
	Plugin base.ToolPlugin
	Schema *jsonschema.Schema
}

// Registry holds the loaded plugins.
type Registry struct {
	tools     map[string]*Tool
	resources map[string]base.ResourcePlugin
	prompts   map[string]base.PromptPlugin
	log       zerolog.Logger
}

// Load instantiates every plugin named in enabled_plugins. An unknown name
// logs a warning and is skipped; a factory failure logs an error and loading
// continues with the rest.
func Load(deps Deps) *Registry {
	r := &Registry{
		tools:     make(map[string]*Tool),
		resources: make(map[string]base.ResourcePlugin),
		prompts:   make(map[string]base.PromptPlugin),
		log:       deps.Log,
	}

	for _, name := range deps.Config.EnabledPlugins {
		factory, ok := factories[name]
		if !ok {
			r.log.Warn().Str("plugin", name).Msg("Unknown plugin, skipping")
			continue
		}
		plugin, err := factory(deps)
		if err != nil {
			r.log.Error().Err(err).Str("plugin", name).Msg("Plugin factory failed")
			continue
		}
		if err := r.register(name, plugin); err != nil {
			r.log.Error().Err(err).Str("plugin", name).Msg("Plugin registration failed")
		}
	}
	return r
}

// register indexes the plugin by its kind.
func (r *Registry) register(name string, plugin any) error {
	switch p := plugin.(type) {
	case base.ToolPlugin:
		schema, err := compileSchema(name, p.InputSchema())
		if err != nil {
			return fmt.Errorf("compile input schema: %w", err)
		}
		r.tools[p.Manifest().Name] = &Tool{Plugin: p, Schema: schema}
	case base.ResourcePlugin:
		r.resources[p.URI()] = p
	case base.PromptPlugin:
		r.prompts[p.PromptName()] = p
	default:
		return fmt.Errorf("plugin %q implements no known plugin interface", name)
	}
	return nil
}

// compileSchema compiles a tool's input schema value once at load time.
func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Tool returns the tool with the given name.
func (r *Registry) Tool(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns all loaded tools sorted by name.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Plugin.Manifest().Name < out[j].Plugin.Manifest().Name
	})
	return out
}

// Resource returns the resource with the given URI.
func (r *Registry) Resource(uri string) (base.ResourcePlugin, bool) {
	p, ok := r.resources[uri]
	return p, ok
}

// Resources returns all loaded resources sorted by URI.
func (r *Registry) Resources() []base.ResourcePlugin {
	out := make([]base.ResourcePlugin, 0, len(r.resources))
	for _, p := range r.resources {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI() < out[j].URI() })
	return out
}

// Prompt returns the prompt with the given name.
func (r *Registry) Prompt(name string) (base.PromptPlugin, bool) {
	p, ok := r.prompts[name]
	return p, ok
}

// Prompts returns all loaded prompts sorted by prompt name.
func (r *Registry) Prompts() []base.PromptPlugin {
	out := make([]base.PromptPlugin, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PromptName() < out[j].PromptName() })
	return out
}

// Close shuts down plugins holding resources.
func (r *Registry) Close() {
	for _, t := range r.tools {
		if c, ok := t.Plugin.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
