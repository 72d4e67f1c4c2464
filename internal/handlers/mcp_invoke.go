package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
)

// MCPInvokeHandler serves JSON-RPC requests over the SSE transport. Each POST
// carries one request and is answered with a single SSE event.
type MCPInvokeHandler struct {
	server  *mcp.Server
	timeout time.Duration
	logger  *slog.Logger
}

// NewMCPInvokeHandler creates a new MCP invocation handler. timeout bounds
// each request; zero disables the bound.
func NewMCPInvokeHandler(server *mcp.Server, timeout time.Duration, logger *slog.Logger) *MCPInvokeHandler {
	return &MCPInvokeHandler{
		server:  server,
		timeout: timeout,
		logger:  logger.With("handler", "mcp_invoke"),
	}
}

// ServeHTTP handles POST /mcp/sse requests with SSE transport
func (h *MCPInvokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	req, err := mcp.ParseJSONRPCRequest(r.Body)
	if err != nil {
		rpcErr := mcp.FormatMCPError(err)
		mcp.LogMCPError(ctx, h.logger, "", "", rpcErr.Code, rpcErr.Message)
		h.checkWrite(ctx, mcp.NewSSEWriter(w).SendError(nil, rpcErr.Code, rpcErr.Message, rpcErr.Data))
		return
	}

	// Notifications get no JSON-RPC response
	if mcp.IsNotification(req) {
		h.server.Handle(ctx, req)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	// Buffered so the dispatch goroutine never blocks after a timeout
	done := make(chan *mcp.JSONRPCResponse, 1)
	go func() {
		done <- h.server.Handle(ctx, req)
	}()

	sseWriter := mcp.NewSSEWriter(w)
	select {
	case resp := <-done:
		if resp.Error != nil {
			h.checkWrite(ctx, sseWriter.SendError(resp.ID, resp.Error.Code, resp.Error.Message, resp.Error.Data))
			return
		}
		h.checkWrite(ctx, sseWriter.SendResult(resp.ID, resp.Result))

	case <-ctx.Done():
		latencyMS := time.Since(start).Milliseconds()
		mcp.LogMCPError(ctx, h.logger, toolName(req), "", mcp.TimeoutExceeded, "Request timeout")

		h.checkWrite(ctx, sseWriter.SendError(req.ID, mcp.TimeoutExceeded, "Request timeout", map[string]any{
			"timeout_ms": h.timeout.Milliseconds(),
			"elapsed_ms": latencyMS,
		}))
	}
}

func (h *MCPInvokeHandler) checkWrite(ctx context.Context, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "sse_write_failed",
			"correlation_id", GetCorrelationID(ctx),
			"error", err,
		)
	}
}

// toolName returns the tool a tools/call request targets, or "".
func toolName(req *mcp.JSONRPCRequest) string {
	params, err := mcp.ParseCallToolParams(req.Params)
	if err != nil {
		return ""
	}
	return params.Name
}
