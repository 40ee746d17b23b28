// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the chart dataset to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/chartboard/internal/chartservice"
)

// DatasetURI is the resource URI of the current dataset.
const DatasetURI = "chartboard://dataset"

// Server wraps the MCP server with chartboard tools.
type Server struct {
	mcp *server.MCPServer
	svc *chartservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *chartservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"chartboard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_dataset",
		mcp.WithDescription("Return every record of the dataset as a JSON array of objects keyed by column name."),
	), s.getDataset)

	s.mcp.AddTool(mcp.NewTool("list_columns",
		mcp.WithDescription("List the dataset's column names in header order."),
	), s.listColumns)

	s.mcp.AddTool(mcp.NewTool("count_by",
		mcp.WithDescription("Count records per distinct value of a column, in first-seen order."),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name, e.g. degree_t")),
	), s.countBy)

	s.mcp.AddResource(
		mcp.NewResource(DatasetURI, "Dataset",
			mcp.WithResourceDescription("The records rendered on the chart page."),
			mcp.WithMIMEType("application/json"),
		),
		s.readDatasetResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getDataset(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cd, err := s.svc.ChartJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(cd.JSON)), nil
}

func (s *Server) listColumns(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cols, err := s.svc.Columns(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(cols, "\n")), nil
}

func (s *Server) countBy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	column, err := req.RequireString("column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	counts, err := s.svc.Counts(ctx, column)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode counts: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDatasetResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cd, err := s.svc.ChartJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DatasetURI,
			MIMEType: "application/json",
			Text:     string(cd.JSON),
		},
	}, nil
}
