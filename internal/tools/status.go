package tools

import (
	"context"

	"github.com/ranger-finance/ranger-agent-kit/internal/config"
	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
	"github.com/ranger-finance/ranger-agent-kit/internal/models"
)

// Status is the ranger_status result. It echoes local configuration and
// never calls upstream.
type Status struct {
	Status      string `json:"status"`
	SORBaseURL  string `json:"sor_base_url"`
	DataBaseURL string `json:"data_base_url"`
	Version     string `json:"version"`
	ToolCount   int    `json:"tool_count"`
}

func newStatusTool(cfg *config.Config, server *mcp.Server) (mcp.ServerTool, error) {
	return mcp.NewTool("ranger_status",
		"Checks the status of the Ranger MCP hub and reports the configured base URLs.",
		func(_ context.Context, _ models.EmptyQuery) (Status, error) {
			return Status{
				Status:      "OK",
				SORBaseURL:  cfg.SORBaseURL,
				DataBaseURL: cfg.DataBaseURL,
				Version:     Version,
				ToolCount:   len(server.Tools()),
			}, nil
		})
}
