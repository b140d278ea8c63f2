// Package mcp exposes the node catalog, graph validation, ordering and runs
// as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canvasflow"
	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/internal/presentation/graph"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ValidationResponse is the structured result of validate_graph.
type ValidationResponse struct {
	Valid bool                   `json:"valid" jsonschema_description:"True when every edge is valid"`
	Edges []validator.EdgeResult `json:"edges" jsonschema_description:"Validation result per edge"`
}

// RunResponse is the structured result of the run tools.
type RunResponse struct {
	RunID     string   `json:"run_id"`
	Status    string   `json:"status"`
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
	Skipped   []string `json:"skipped"`
	Error     string   `json:"error,omitempty"`
}

// Server wraps a Runner and exposes it as an MCP server.
type Server struct {
	runner    *runner.Runner
	validator *validator.Validator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(r *runner.Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		runner:    r,
		validator: validator.New(r.Registry()),
		logger:    logger,
		mcpServer: server.NewMCPServer("canvasflow-mcp", strings.TrimSpace(canvasflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_node_types",
		mcp.WithDescription("List the node types of the catalog with their ports."),
		mcp.WithString("category", mcp.Description("Only list types of this category (input, processing, output, utility)")),
	), s.handleListNodeTypes)

	s.mcpServer.AddTool(mcp.NewTool("validate_graph",
		mcp.WithDescription("Validate every connection of a graph."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON object with nodes and edges")),
		mcp.WithOutputSchema[ValidationResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidateGraph))

	s.mcpServer.AddTool(mcp.NewTool("execution_order",
		mcp.WithDescription("Return the topological execution order of a graph."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON object with nodes and edges")),
	), s.handleExecutionOrder)

	s.mcpServer.AddTool(mcp.NewTool("export_mermaid",
		mcp.WithDescription("Render a graph as a Mermaid flowchart, optionally colored by a run's node statuses."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON object with nodes and edges")),
		mcp.WithString("run_id", mcp.Description("Run whose state colors the nodes")),
	), s.handleExportMermaid)

	s.mcpServer.AddTool(mcp.NewTool("run_graph",
		mcp.WithDescription("Execute a graph and wait for it to finish."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON object with nodes and edges")),
		mcp.WithString("mode", mcp.Description("manual, automatic, scheduled or event_driven")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleRunGraph))

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the state of a run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))
}

func (s *Server) handleListNodeTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.runner.Registry()
	defs := reg.Definitions()
	if cat := request.GetString("category", ""); cat != "" {
		defs = reg.DefinitionsByCategory(domain.Category(cat))
	}
	jsonBytes, err := json.Marshal(defs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidateGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationResponse, error) {
	g, err := parseGraph(args)
	if err != nil {
		return ValidationResponse{}, err
	}
	results := s.validator.ValidateGraph(g.Nodes, g.Edges)
	return ValidationResponse{Valid: validator.Errors(results) == nil, Edges: results}, nil
}

func (s *Server) handleExecutionOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := parseGraph(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, err := executor.Order(g.Nodes, g.Edges)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(order, "\n")), nil
}

func (s *Server) handleExportMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := parseGraph(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var overlay *graph.Overlay
	if runID := request.GetString("run_id", ""); runID != "" {
		state, err := s.runner.State(ctx, runID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		overlay = graph.OverlayFromState(state)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.runner.Registry(), g, overlay)), nil
}

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	g, err := parseGraph(args)
	if err != nil {
		return RunResponse{}, err
	}
	req := runner.Request{Graph: g}
	if m, _ := args["mode"].(string); m != "" {
		mode, err := domain.ParseExecutionMode(m)
		if err != nil {
			return RunResponse{}, err
		}
		req.Mode = mode
	}

	state, err := s.runner.Run(ctx, req)
	if state == nil {
		return RunResponse{}, fmt.Errorf("run failed: %w", err)
	}
	if err != nil {
		s.logger.Warn("MCP run finished with error", "run_id", state.RunID, "err", err)
	}
	return toRunResponse(state), nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	runID, _ := args["run_id"].(string)
	state, err := s.runner.State(ctx, runID)
	if err != nil {
		return RunResponse{}, err
	}
	return toRunResponse(state), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("canvasflow://node-types", "Node Type Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.runner.Registry().Definitions())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canvasflow://node-types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func parseGraph(args map[string]any) (domain.Graph, error) {
	raw, _ := args["graph"].(string)
	if raw == "" {
		return domain.Graph{}, errors.New("graph is required")
	}
	var g domain.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return domain.Graph{}, fmt.Errorf("invalid graph JSON: %w", err)
	}
	return g, nil
}

func toRunResponse(s *domain.ExecutionState) RunResponse {
	return RunResponse{
		RunID:     s.RunID,
		Status:    string(s.Status),
		Completed: s.Completed.Sorted(),
		Failed:    s.Failed.Sorted(),
		Skipped:   s.Skipped.Sorted(),
		Error:     s.Error,
	}
}
