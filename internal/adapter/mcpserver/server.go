// Package mcpserver exposes the orchestration engine as an MCP server.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
	"ensemble/internal/infra/middleware"
)

// serverName identifies this MCP server to clients.
const serverName = "ensemble"

// shutdownTimeout bounds graceful HTTP shutdown on context cancellation.
const shutdownTimeout = 5 * time.Second

// Server hosts the MCP server over stdio or streamable HTTP.
type Server struct {
	mcpServer *server.MCPServer
	cfg       config.ServerConfig
	logger    *slog.Logger
}

// OrchestrateInput is the orchestrate tool's argument schema.
type OrchestrateInput struct {
	Prompt           string   `json:"prompt"`
	Strategy         string   `json:"strategy"`
	Models           []string `json:"models,omitempty"`
	MaxRounds        int      `json:"max_rounds,omitempty"`
	Temperature      float64  `json:"temperature,omitempty"`
	IncludeReasoning bool     `json:"include_reasoning,omitempty"`
	UseThinking      bool     `json:"use_thinking,omitempty"`
}

// StrategyInfo describes one orchestration strategy for discovery.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListStrategiesResult is the list_strategies tool output.
type ListStrategiesResult struct {
	Strategies []StrategyInfo `json:"strategies"`
}

// New creates a configured MCP server around the orchestrator.
func New(orch domain.Orchestrator, cfg config.ServerConfig, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	mcpServer.AddTool(orchestrateTool(), orchestrateHandler(orch, logger))
	mcpServer.AddTool(listStrategiesTool(), listStrategiesHandler())

	return &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Serve blocks serving MCP on the configured transport until the context is
// canceled (http) or stdin closes (stdio).
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("mcp server is not configured")
	}

	switch s.cfg.Transport {
	case "http":
		return s.serveHTTP(ctx)
	case "stdio", "":
		s.logger.Info("mcp server listening", "transport", "stdio")
		if err := server.ServeStdio(s.mcpServer); err != nil {
			return fmt.Errorf("serve mcp stdio: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported mcp transport %q", s.cfg.Transport)
	}
}

func (s *Server) serveHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.httpHandler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("mcp http shutdown", "error", err)
		}
	}()

	s.logger.Info("mcp server listening", "transport", "http", "addr", s.cfg.Addr,
		"rate_limited", s.cfg.RateLimit.Enabled)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve mcp http: %w", err)
	}
	return nil
}

// httpHandler mounts the streamable MCP handler behind hardening headers
// and, when configured, a per-peer rate limit. ctx bounds the limiter's
// sweeper goroutine.
func (s *Server) httpHandler(ctx context.Context) http.Handler {
	var handler http.Handler = server.NewStreamableHTTPServer(s.mcpServer)
	if s.cfg.RateLimit.Enabled {
		handler = middleware.PerClientLimit(ctx, s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst)(handler)
	}
	return middleware.Headers(handler)
}

// orchestrateTool defines the MCP tool schema for orchestration calls.
func orchestrateTool() mcp.Tool {
	return mcp.NewTool(
		"orchestrate",
		mcp.WithDescription("Run a prompt through multiple AI models with an orchestration strategy and return the combined result"),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The prompt or question to orchestrate"),
		),
		mcp.WithString("strategy",
			mcp.Required(),
			mcp.Description("Orchestration strategy: sequential, parallel, debate, consensus, specialist, hierarchical or mixture"),
		),
		mcp.WithArray("models",
			mcp.Description("Model identifiers as \"<vendor>/<model>\"; configured defaults apply when omitted"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("max_rounds",
			mcp.Description("Debate round limit"),
			mcp.Min(1),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Sampling temperature for model calls"),
			mcp.Min(0),
			mcp.Max(2),
		),
		mcp.WithBoolean("include_reasoning",
			mcp.Description("Add a synthesis step to the parallel strategy"),
		),
		mcp.WithBoolean("use_thinking",
			mcp.Description("Enable extended thinking on providers that support it"),
		),
		mcp.WithOutputSchema[domain.OrchestrationResult](),
	)
}

// orchestrateHandler executes one orchestration call.
func orchestrateHandler(orch domain.Orchestrator, logger *slog.Logger) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input OrchestrateInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid orchestrate arguments", err), nil
		}

		req, err := buildRequest(input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := orch.Orchestrate(ctx, req)
		if err != nil {
			logger.Error("orchestrate tool failed",
				"strategy", input.Strategy,
				"error", err)
			return mcp.NewToolResultErrorFromErr("orchestration failed", err), nil
		}

		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

// buildRequest validates tool arguments into a domain request. Strategy and
// model identifiers are rejected here so malformed calls never reach the
// engine.
func buildRequest(input OrchestrateInput) (domain.OrchestrationRequest, error) {
	var req domain.OrchestrationRequest

	if strings.TrimSpace(input.Prompt) == "" {
		return req, fmt.Errorf("prompt must not be empty")
	}

	strategy, err := domain.ParseStrategy(input.Strategy)
	if err != nil {
		return req, err
	}

	models := make([]domain.ModelID, 0, len(input.Models))
	for _, m := range input.Models {
		id := domain.ModelID(m)
		if _, _, err := domain.ParseModelID(id); err != nil {
			return req, err
		}
		models = append(models, id)
	}

	req = domain.OrchestrationRequest{
		Prompt:   input.Prompt,
		Strategy: strategy,
		Models:   models,
		Options: domain.OrchestrationOptions{
			MaxRounds:        input.MaxRounds,
			Temperature:      input.Temperature,
			IncludeReasoning: input.IncludeReasoning,
			UseThinking:      input.UseThinking,
		},
	}
	return req, nil
}

// listStrategiesTool defines the MCP tool schema for strategy discovery.
func listStrategiesTool() mcp.Tool {
	return mcp.NewTool(
		"list_strategies",
		mcp.WithDescription("List the orchestration strategies this server supports"),
		mcp.WithOutputSchema[ListStrategiesResult](),
	)
}

// listStrategiesHandler returns every strategy in stable order.
func listStrategiesHandler() func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kinds := domain.Strategies()
		out := ListStrategiesResult{Strategies: make([]StrategyInfo, 0, len(kinds))}
		for _, k := range kinds {
			out.Strategies = append(out.Strategies, StrategyInfo{
				Name:        string(k),
				Description: k.Description(),
			})
		}
		return mcp.NewToolResultStructuredOnly(out), nil
	}
}
