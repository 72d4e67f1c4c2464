package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
)

// ToolHandler runs a tool against its raw argument object. A returned
// *RPCError is reported as a protocol error; any other error becomes a
// tool-level failure.
type ToolHandler func(ctx context.Context, args json.RawMessage) (*CallToolResult, error)

// ServerTool pairs a tool definition with its handler.
type ServerTool struct {
	Tool    Tool
	Handler ToolHandler
}

// NewTool builds a tool from a typed function. The input schema is reflected
// from T and every call is validated against it before fn runs.
func NewTool[T any, R any](name, description string, fn func(ctx context.Context, args T) (R, error)) (ServerTool, error) {
	v, err := schema.Compile[T]()
	if err != nil {
		return ServerTool{}, fmt.Errorf("tool %s: %w", name, err)
	}

	handler := func(ctx context.Context, raw json.RawMessage) (*CallToolResult, error) {
		args, err := ParseArguments[T](v, raw)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		return NewToolResult(res)
	}

	return ServerTool{
		Tool: Tool{
			Name:        name,
			Description: description,
			InputSchema: v.Schema(),
		},
		Handler: handler,
	}, nil
}

// ParseArguments validates raw against v and decodes it into T. The decoded
// value is re-encoded first so integral floats such as 100.0 fit integer fields.
func ParseArguments[T any](v *schema.Validator, raw json.RawMessage) (T, error) {
	var args T

	value, err := v.ValidateJSON(raw)
	if err != nil {
		return args, err
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return args, fmt.Errorf("re-encode arguments: %w", err)
	}
	if err := json.Unmarshal(normalized, &args); err != nil {
		return args, &schema.ValidationError{Violations: []schema.Violation{{Field: schema.RootField, Message: err.Error()}}}
	}
	return args, nil
}

// NewToolResult wraps a handler result. Strings are returned verbatim as text;
// anything else is JSON encoded, and JSON objects are also attached as
// structured content.
func NewToolResult(res any) (*CallToolResult, error) {
	if s, ok := res.(string); ok {
		return &CallToolResult{Content: []TextContent{{Type: "text", Text: s}}}, nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}

	result := &CallToolResult{Content: []TextContent{{Type: "text", Text: string(data)}}}
	if len(data) > 0 && data[0] == '{' {
		result.StructuredContent = json.RawMessage(data)
	}
	return result, nil
}
