// Package mcpserver exposes the assistant over the Model Context Protocol:
// one handle_query tool for free-text requests plus every handler operation
// with its JSON schema.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/tool"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = "Construction management assistant. Use handle_query for free-text requests; " +
	"it routes to the financial, project and document specialists and records the conversation. " +
	"The other tools call a specialist operation directly with structured arguments."

// QueryHandler answers free-text requests.
type QueryHandler interface {
	HandleQuery(ctx context.Context, input string) string
}

// New builds an MCP server over q and the tools in reg.
func New(q QueryHandler, reg *tool.Registry, logger logging.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"site-assistant",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.AddTools(Tools(q, reg, logger)...)
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// Tools returns the MCP definitions and handlers.
func Tools(q QueryHandler, reg *tool.Registry, logger logging.Logger) []server.ServerTool {
	logger = logging.OrNop(logger)
	out := []server.ServerTool{{
		Tool: mcp.NewTool("handle_query",
			mcp.WithDescription("Answer a free-text construction management request, delegating to the right specialist."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The request in plain language")),
		),
		Handler: handleQuery(q),
	}}
	for _, t := range reg.List() {
		out = append(out, server.ServerTool{
			Tool:    definition(t),
			Handler: callTool(t, logger),
		})
	}
	return out
}

func handleQuery(q QueryHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("'query' is required"), nil
		}
		return mcp.NewToolResultText(q.HandleQuery(ctx, query)), nil
	}
}

func definition(t tool.Tool) mcp.Tool {
	schema, err := json.Marshal(t.Schema())
	if err != nil {
		schema = []byte(`{"type":"object"}`)
	}
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema)
}

func callTool(t tool.Tool, logger logging.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		res := tool.Run(ctx, t, args)
		if !res.Success {
			logger.Warn("mcp tool failed", "tool", t.Name(), "kind", string(res.Kind), "error", res.Error)
			return mcp.NewToolResultError(res.JSON()), nil
		}
		return mcp.NewToolResultText(res.JSON()), nil
	}
}
