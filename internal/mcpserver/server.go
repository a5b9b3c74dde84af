// Package mcpserver is the tool-calling front door: an MCP server over
// stdio exposing the domain client's operations as named tools so an
// LLM agent can drive the note application.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"anybridge/internal/anytype"
	"anybridge/internal/validate"
	"anybridge/pkg/logging"
)

// Server exposes the domain client's operations as MCP tools.
// Authentication uses the process-level app key configured on the
// client; individual tool calls carry no token.
type Server struct {
	client    *anytype.Client
	validator *validate.TypeValidator
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers all tools.
func NewServer(name, version string, client *anytype.Client, validator *validate.TypeValidator) *Server {
	s := &Server{
		client:    client,
		validator: validator,
		mcpServer: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Start serves MCP over stdio until the transport closes. Logs go to
// stderr; stdout belongs to the protocol.
func (s *Server) Start(ctx context.Context) error {
	logging.Info("MCP", "serving over stdio")
	return server.ServeStdio(s.mcpServer)
}

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	for _, reg := range []struct {
		tool    mcp.Tool
		handler toolHandler
	}{
		{s.createSpaceTool(), s.handleCreateSpace},
		{s.listSpacesTool(), s.handleListSpaces},
		{s.getSpaceMembersTool(), s.handleGetSpaceMembers},
		{s.createObjectTool(), s.handleCreateObject},
		{s.getObjectTool(), s.handleGetObject},
		{s.listObjectsTool(), s.handleListObjects},
		{s.deleteObjectTool(), s.handleDeleteObject},
		{s.searchObjectsTool(), s.handleSearchObjects},
		{s.globalSearchTool(), s.handleGlobalSearch},
		{s.exportObjectTool(), s.handleExportObject},
		{s.listTypesTool(), s.handleListTypes},
		{s.getTypeTool(), s.handleGetType},
		{s.listTemplatesTool(), s.handleListTemplates},
		{s.getTemplateTool(), s.handleGetTemplate},
		{s.listTagsTool(), s.handleListTags},
		{s.createTagTool(), s.handleCreateTag},
		{s.getListViewsTool(), s.handleGetListViews},
		{s.getObjectsInListTool(), s.handleGetObjectsInList},
		{s.addObjectsToListTool(), s.handleAddObjectsToList},
		{s.removeObjectFromListTool(), s.handleRemoveObjectFromList},
	} {
		s.mcpServer.AddTool(reg.tool, reg.handler)
	}
}
