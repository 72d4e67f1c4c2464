package mcp

import (
	"context"
	"log/slog"
)

type correlationIDKey struct{}

// ContextWithCorrelationID attaches a request correlation ID to ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation ID attached to ctx, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// LogMCPRequest logs an MCP request with structured fields
func LogMCPRequest(ctx context.Context, logger *slog.Logger, method string, tool string) {
	logger.InfoContext(ctx, "mcp_request",
		"component", "mcp-gateway",
		"method", method,
		"tool_name", tool,
		"correlation_id", CorrelationID(ctx),
	)
}

// LogMCPSuccess logs successful MCP tool execution
func LogMCPSuccess(ctx context.Context, logger *slog.Logger, tool string, latencyMS int64) {
	logger.InfoContext(ctx, "mcp_success",
		"component", "mcp-gateway",
		"tool_name", tool,
		"correlation_id", CorrelationID(ctx),
		"latency_ms", latencyMS,
	)
}

// LogMCPError logs a failed MCP request. kind is a FailureKind for tool
// failures and empty for protocol errors.
func LogMCPError(ctx context.Context, logger *slog.Logger, tool string, kind FailureKind, errorCode int, errorMsg string) {
	logger.ErrorContext(ctx, "mcp_error",
		"component", "mcp-gateway",
		"tool_name", tool,
		"correlation_id", CorrelationID(ctx),
		"error_kind", kind,
		"error_code", errorCode,
		"error_message", errorMsg,
	)
}
