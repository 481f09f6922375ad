package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var errEmptyPlayerID = errors.New("player_id must not be empty")

func requirePlayerID(request mcp.CallToolRequest) (string, error) {
	playerID, err := requirePlayerID(request)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(playerID) == "" {
		return "", errEmptyPlayerID
	}
	return playerID, nil
}

func (s *Server) registerSeatTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"sit",
			mcp.WithDescription("Take a free seat at the table"),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithNumber("seat", mcp.Required(), mcp.Description("Seat number, 1-based")),
		),
		s.handleSit,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"leave",
			mcp.WithDescription("Give up the seat; the table balance must be zero"),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
		),
		s.handleLeave,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"buy_in",
			mcp.WithDescription("Move chips from the bank onto the table"),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithNumber("amount", mcp.Required(), mcp.Description("Chips to bring, positive")),
		),
		s.handleBuyIn,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"cash_out",
			mcp.WithDescription("Return the whole table balance to the bank"),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
		),
		s.handleCashOut,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_players",
			mcp.WithDescription("Seated players ordered by seat"),
		),
		s.handleListPlayers,
	)
}

func (s *Server) registerRoundTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"deal",
			mcp.WithDescription("Start a round with everyone seated"),
		),
		s.handleDeal,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_round",
			mcp.WithDescription("The active round, if any"),
		),
		s.handleGetRound,
	)
}

func (s *Server) handleSit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requirePlayerID(request)
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	seat, err := request.RequireInt("seat")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.table.Sit(ctx, playerID, seat); err != nil {
		return tableError(err), nil
	}
	return toolResult(map[string]any{"ok": true, "player_id": playerID, "seat": seat}), nil
}

func (s *Server) handleLeave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requirePlayerID(request)
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.table.Leave(ctx, playerID); err != nil {
		return tableError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}

func (s *Server) handleBuyIn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requirePlayerID(request)
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	amount, err := request.RequireInt("amount")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.table.BuyIn(ctx, playerID, int64(amount)); err != nil {
		return tableError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}

func (s *Server) handleCashOut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requirePlayerID(request)
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.table.CashOut(ctx, playerID); err != nil {
		return tableError(err), nil
	}
	return toolResult(map[string]any{"ok": true}), nil
}

func (s *Server) handleListPlayers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.state()), nil
}

func (s *Server) handleDeal(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.table.Deal(ctx)
	if err != nil {
		return tableError(err), nil
	}
	return toolResult(map[string]any{"round_id": string(id), "active": true}), nil
}

func (s *Server) handleGetRound(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, active := s.table.ActiveRound()
	return toolResult(map[string]any{"round_id": string(id), "active": active}), nil
}
