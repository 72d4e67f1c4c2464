// Package tools implements the Ranger trading and data tools and mounts them
// on an MCP server.
package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ranger-finance/ranger-agent-kit/internal/config"
	"github.com/ranger-finance/ranger-agent-kit/internal/instrumentation"
	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
)

// Version is reported by ranger_status and initialize. Overridden at build
// time with -ldflags "-X .../internal/tools.Version=...".
var Version = "0.1.0"

// ServerName identifies the gateway in the initialize handshake.
const ServerName = "RangerFinance"

// Group prefixes.
const (
	PrefixSOR  = "sor"
	PrefixData = "data"
)

const instructions = "This server allows interaction with Ranger Finance APIs. " +
	"Use 'sor_*' tools for trading operations (quote, increase, decrease, close, withdraw) " +
	"and 'data_*' tools for fetching market data (positions, history, liquidations, funding). " +
	"Trading tools return base64 transaction messages that need external signing."

// Upstream is the pair of API calls the tools depend on.
type Upstream interface {
	TradingClient
	DataClient
}

// ResourceDescriptor is the body of a per-tool resource.
type ResourceDescriptor struct {
	Resource    string `json:"resource"`
	Description string `json:"description"`
}

// NewServer builds the MCP server with the sor and data groups mounted and
// the top-level ranger_status tool registered.
func NewServer(cfg *config.Config, client Upstream, metrics *instrumentation.Metrics, logger *slog.Logger) (*mcp.Server, error) {
	server := mcp.NewServer(
		mcp.Implementation{Name: ServerName, Version: Version},
		instructions,
		metrics,
		logger.With("component", "mcp_server"),
	)

	sor, err := NewSORGroup(client, logger)
	if err != nil {
		return nil, fmt.Errorf("build sor tools: %w", err)
	}
	if err := server.Mount(PrefixSOR, sor); err != nil {
		return nil, err
	}

	data, err := NewDataGroup(client, logger)
	if err != nil {
		return nil, fmt.Errorf("build data tools: %w", err)
	}
	if err := server.Mount(PrefixData, data); err != nil {
		return nil, err
	}

	status, err := newStatusTool(cfg, server)
	if err != nil {
		return nil, fmt.Errorf("build status tool: %w", err)
	}
	if err := server.AddTool(status); err != nil {
		return nil, err
	}

	return server, nil
}

type toolEntry struct {
	tool mcp.ServerTool
	err  error
}

func entry(t mcp.ServerTool, err error) toolEntry {
	return toolEntry{tool: t, err: err}
}

// register adds each tool to g together with its resource descriptor.
func register(g *mcp.Group, entries ...toolEntry) error {
	for _, e := range entries {
		if e.err != nil {
			return e.err
		}
		g.AddTool(e.tool)

		desc := ResourceDescriptor{Resource: e.tool.Tool.Name, Description: e.tool.Tool.Description}
		g.AddResource(desc.Resource, desc.Description, func(context.Context) (any, error) {
			return desc, nil
		})
	}
	return nil
}
