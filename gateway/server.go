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

// Package gateway is the HTTP face of the tool server: routing, bearer
// authentication, the MCP JSON-RPC handler, the policy-enforcing tool-call
// wrapper, and Prometheus metrics.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"toolgate/gateway/config"
	"toolgate/gateway/core"
	"toolgate/gateway/plugins/registry"
)

// Server owns the HTTP listener and the wired request pipeline.
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	policy   *core.PolicyEngine
	limiter  core.RateLimiter
	log      zerolog.Logger
	httpSrv  *http.Server
}

// New wires the full gateway: auth resolver, policy engine, rate limiter
// backend, plugin registry, metrics, and routes. The Redis-backed rate
// limiter is selected when server.redis_url is configured.
func New(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	var limiter core.RateLimiter = core.NewMemoryRateLimiter()
	if cfg.Server.RedisURL != "" {
		redisLimiter, err := core.NewRedisRateLimiter(cfg.Server.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("redis rate limiter: %w", err)
		}
		limiter = redisLimiter
		log.Info().Msg("Using Redis-backed rate limiter")
	}

	policy := core.NewPolicyEngine(cfg.AgentPolicies(), limiter, log)
	resolver := core.NewAuthResolver(cfg.TokenEntries())

	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg)

	reg := registry.Load(registry.Deps{
		Config: cfg,
		Policy: policy,
		RecordCost: func(agentID string, cost float64) {
			metrics.LLMCost.WithLabelValues(agentID).Add(cost)
		},
		Log: log,
	})

	invoker := NewInvoker(cfg, policy, reg, metrics, log)
	mcpHandler := NewMCPHandler(cfg, reg, invoker, log)

	router := mux.NewRouter()
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	authed := AuthMiddleware(resolver)
	router.Handle("/mcp", authed(mcpHandler)).Methods(http.MethodPost)

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)

	srv := &Server{
		cfg:      cfg,
		registry: reg,
		policy:   policy,
		limiter:  limiter,
		log:      log,
		httpSrv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}
	return srv, nil
}

// Handler exposes the composed HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info().
		Str("addr", s.httpSrv.Addr).
		Str("server", s.cfg.Server.Name).
		Str("version", s.cfg.Server.Version).
		Msg("Server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases plugin and limiter
// resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.registry.Close()
	if c, ok := s.limiter.(*core.RedisRateLimiter); ok {
		_ = c.Close()
	}
	return err
}

// handleHealth serves the unauthenticated liveness probe.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
