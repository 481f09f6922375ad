package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	httptransport "chip-table/internal/transport/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the table operations as MCP tools so agents can play
// without speaking the HTTP API.
type Server struct {
	table httptransport.TableAPI

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(tbl httptransport.TableAPI) *Server {
	mcpSrv := server.NewMCPServer(
		"chip-table",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		table:      tbl,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSeatTools()
	s.registerRoundTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"table://{table_id}/state",
			"table_state",
			mcp.WithTemplateDescription("Seated players, balances and the active round"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			tableID := strings.TrimSuffix(strings.TrimPrefix(raw, "table://"), "/state")
			if tableID != s.table.ID() {
				return nil, fmt.Errorf("unknown table %q", tableID)
			}
			payload, err := json.Marshal(s.state())
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

func (s *Server) state() map[string]any {
	round, active := s.table.ActiveRound()
	return map[string]any{
		"table_id":   s.table.ID(),
		"seat_count": s.table.SeatCount(),
		"players":    s.table.Players(),
		"round_id":   string(round),
		"active":     active,
	}
}
