package mcp

import (
	"errors"
	"fmt"

	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
	"github.com/ranger-finance/ranger-agent-kit/internal/upstream"
)

// FailureKind classifies a tool-level failure.
type FailureKind string

const (
	KindValidation    FailureKind = "validation"
	KindUpstreamHTTP  FailureKind = "upstream_http"
	KindNetwork       FailureKind = "network"
	KindProtocol      FailureKind = "protocol"
	KindResponseShape FailureKind = "response_shape"
	KindInternal      FailureKind = "internal"
)

// ToolError is the structured body of a failed tool call.
type ToolError struct {
	Message string      `json:"message"`
	Kind    FailureKind `json:"kind"`
	Status  int         `json:"status,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

// ClassifyError maps an error raised while running a tool to its kind and
// caller-facing message.
func ClassifyError(err error) ToolError {
	var (
		validationErr *schema.ValidationError
		httpErr       *upstream.HTTPError
		networkErr    *upstream.NetworkError
		protocolErr   *upstream.ProtocolError
		shapeErr      *upstream.ShapeError
	)

	switch {
	case errors.As(err, &validationErr):
		return ToolError{Message: validationErr.Error(), Kind: KindValidation, Fields: validationErr.Fields()}
	case errors.As(err, &httpErr):
		return ToolError{Message: httpErr.Message(), Kind: KindUpstreamHTTP, Status: httpErr.Status}
	case errors.As(err, &networkErr):
		return ToolError{Message: networkErr.Error(), Kind: KindNetwork}
	case errors.As(err, &shapeErr):
		return ToolError{Message: shapeErr.Error(), Kind: KindResponseShape}
	case errors.As(err, &protocolErr):
		return ToolError{Message: protocolErr.Error(), Kind: KindProtocol}
	default:
		return ToolError{Message: fmt.Sprintf("Internal error: %s", err.Error()), Kind: KindInternal}
	}
}

// ToolFailure builds the isError result reported for a failed tool call.
func ToolFailure(err error) *CallToolResult {
	te := ClassifyError(err)
	return &CallToolResult{
		Content:           []TextContent{{Type: "text", Text: te.Message}},
		StructuredContent: te,
		IsError:           true,
	}
}

// FormatMCPError formats protocol-level failures into JSON-RPC errors
func FormatMCPError(err error) *RPCError {
	// Check if already an RPC error
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	// Generic error
	return &RPCError{
		Code:    InternalError,
		Message: fmt.Sprintf("Internal error: %s", err.Error()),
	}
}
