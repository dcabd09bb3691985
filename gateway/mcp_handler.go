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
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"toolgate/gateway/config"
	"toolgate/gateway/plugins/registry"
)

// protocolVersion is the MCP protocol revision the gateway speaks.
const protocolVersion = "2025-03-26"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// JSON-RPC 2.0 wire types.

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MCP method types.

type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    serverCaps `json:"capabilities"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

type serverCaps struct {
	Tools     struct{} `json:"tools"`
	Resources struct{} `json:"resources"`
	Prompts   struct{} `json:"prompts"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolDescriptor struct {
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

type listToolsResult struct {
	Tools []toolDescriptor `json:"tools"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type callToolResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type resourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

type listResourcesResult struct {
	Resources []resourceDescriptor `json:"resources"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type resourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

type readResourceResult struct {
	Contents []resourceContents `json:"contents"`
}

type promptArgumentDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type promptDescriptor struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Arguments   []promptArgumentDescriptor `json:"arguments,omitempty"`
}

type listPromptsResult struct {
	Prompts []promptDescriptor `json:"prompts"`
}

type getPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type promptMessage struct {
	Role    string      `json:"role"`
	Content contentItem `json:"content"`
}

type getPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []promptMessage `json:"messages"`
}

// MCPHandler serves the MCP JSON-RPC 2.0 surface on POST /mcp. Policy and
// upstream failures travel inside successful JSON-RPC results; the JSON-RPC
// error shape is reserved for protocol faults.
type MCPHandler struct {
	cfg      *config.Config
	registry *registry.Registry
	invoker  *Invoker
	log      zerolog.Logger
}

// NewMCPHandler builds the handler.
func NewMCPHandler(cfg *config.Config, reg *registry.Registry, invoker *Invoker, log zerolog.Logger) *MCPHandler {
	return &MCPHandler{cfg: cfg, registry: reg, invoker: invoker, log: log}
}

// ServeHTTP implements http.Handler.
func (h *MCPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reply(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "Parse error"},
		})
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo: serverInfo{
				Name:    h.cfg.Server.Name,
				Version: h.cfg.Server.Version,
			},
		}
	case "ping":
		resp.Result = struct{}{}
	case "tools/list":
		resp.Result = h.listTools()
	case "tools/call":
		resp = h.callTool(r, req)
	case "resources/list":
		resp.Result = h.listResources()
	case "resources/read":
		resp = h.readResource(r, req)
	case "prompts/list":
		resp.Result = h.listPrompts()
	case "prompts/get":
		resp = h.getPrompt(r, req)
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found: " + req.Method}
	}

	h.reply(w, resp)
}

func (h *MCPHandler) reply(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON-RPC response")
	}
}

func (h *MCPHandler) listTools() listToolsResult {
	result := listToolsResult{Tools: []toolDescriptor{}}
	for _, t := range h.registry.Tools() {
		m := t.Plugin.Manifest()
		result.Tools = append(result.Tools, toolDescriptor{
			Name:        m.Name,
			Title:       m.Title,
			Description: m.Description,
			InputSchema: t.Plugin.InputSchema(),
		})
	}
	return result
}

func (h *MCPHandler) callTool(r *http.Request, req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
		return resp
	}

	text, isError := h.invoker.Invoke(r.Context(), params.Name, params.Arguments)
	resp.Result = callToolResult{
		Content: []contentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
	return resp
}

func (h *MCPHandler) listResources() listResourcesResult {
	result := listResourcesResult{Resources: []resourceDescriptor{}}
	for _, p := range h.registry.Resources() {
		m := p.Manifest()
		result.Resources = append(result.Resources, resourceDescriptor{
			URI:         p.URI(),
			Name:        m.Name,
			Description: m.Description,
			MIMEType:    "text/plain",
		})
	}
	return result
}

func (h *MCPHandler) readResource(r *http.Request, req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
		return resp
	}

	plugin, ok := h.registry.Resource(params.URI)
	if !ok {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "Unknown resource: " + params.URI}
		return resp
	}

	identity, _ := IdentityFromContext(r.Context())
	text, err := plugin.Read(r.Context(), identity)
	if err != nil {
		text = errorBody(err.Error(), nil)
	}
	resp.Result = readResourceResult{
		Contents: []resourceContents{{
			URI:      params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}
	return resp
}

func (h *MCPHandler) listPrompts() listPromptsResult {
	result := listPromptsResult{Prompts: []promptDescriptor{}}
	for _, p := range h.registry.Prompts() {
		m := p.Manifest()
		desc := promptDescriptor{
			Name:        p.PromptName(),
			Description: m.Description,
		}
		for _, a := range p.Arguments() {
			desc.Arguments = append(desc.Arguments, promptArgumentDescriptor{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		result.Prompts = append(result.Prompts, desc)
	}
	return result
}

func (h *MCPHandler) getPrompt(r *http.Request, req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	var params getPromptParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
		return resp
	}

	plugin, ok := h.registry.Prompt(params.Name)
	if !ok {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: "Unknown prompt: " + params.Name}
		return resp
	}

	if params.Arguments == nil {
		params.Arguments = map[string]string{}
	}
	for _, a := range plugin.Arguments() {
		if a.Required {
			if _, present := params.Arguments[a.Name]; !present {
				resp.Error = &rpcError{Code: codeInvalidParams, Message: "Missing required argument: " + a.Name}
				return resp
			}
		}
	}

	text, err := plugin.Render(r.Context(), params.Arguments)
	if err != nil {
		resp.Error = &rpcError{Code: codeInvalidParams, Message: err.Error()}
		return resp
	}
	resp.Result = getPromptResult{
		Description: plugin.Manifest().Description,
		Messages: []promptMessage{
			{Role: "user", Content: contentItem{Type: "text", Text: text}},
		},
	}
	return resp
}
