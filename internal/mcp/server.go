// Package mcp implements the Model Context Protocol surface: JSON-RPC
// dispatch, tool and resource registration, and the SSE and stdio framings.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ranger-finance/ranger-agent-kit/internal/instrumentation"
)

// ResourceReader returns the body of a resource.
type ResourceReader func(ctx context.Context) (any, error)

// ServerResource pairs a resource descriptor with its reader.
type ServerResource struct {
	Resource Resource
	Read     ResourceReader
}

// Group is a named set of tools and resources mounted under a prefix.
type Group struct {
	tools     []ServerTool
	resources []ServerResource
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// AddTool appends a tool. Names are relative to the mount prefix.
func (g *Group) AddTool(t ServerTool) {
	g.tools = append(g.tools, t)
}

// AddResource appends a resource. The URI is assigned at mount time.
func (g *Group) AddResource(name, description string, read ResourceReader) {
	g.resources = append(g.resources, ServerResource{
		Resource: Resource{Name: name, Description: description, MimeType: "application/json"},
		Read:     read,
	})
}

// Server dispatches JSON-RPC requests to registered tools and resources.
// Registration happens before serving; afterwards the server is read-only
// and safe for concurrent use.
type Server struct {
	info         Implementation
	instructions string

	tools         map[string]ServerTool
	toolOrder     []string
	resources     map[string]ServerResource
	resourceOrder []string

	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewServer creates a server. metrics may be nil.
func NewServer(info Implementation, instructions string, metrics *instrumentation.Metrics, logger *slog.Logger) *Server {
	return &Server{
		info:         info,
		instructions: instructions,
		tools:        make(map[string]ServerTool),
		resources:    make(map[string]ServerResource),
		metrics:      metrics,
		logger:       logger,
	}
}

// AddTool registers a top-level tool.
func (s *Server) AddTool(t ServerTool) error {
	if t.Tool.Name == "" || t.Handler == nil {
		return fmt.Errorf("tool must have a name and a handler")
	}
	if _, exists := s.tools[t.Tool.Name]; exists {
		return fmt.Errorf("duplicate tool %q", t.Tool.Name)
	}
	s.tools[t.Tool.Name] = t
	s.toolOrder = append(s.toolOrder, t.Tool.Name)
	return nil
}

// Mount registers every tool of g as <prefix>_<name> and every resource
// under <prefix>://<name>.
func (s *Server) Mount(prefix string, g *Group) error {
	for _, t := range g.tools {
		t.Tool.Name = prefix + "_" + t.Tool.Name
		if err := s.AddTool(t); err != nil {
			return fmt.Errorf("mount %s: %w", prefix, err)
		}
	}
	for _, r := range g.resources {
		r.Resource.URI = prefix + "://" + r.Resource.Name
		if _, exists := s.resources[r.Resource.URI]; exists {
			return fmt.Errorf("mount %s: duplicate resource %q", prefix, r.Resource.URI)
		}
		s.resources[r.Resource.URI] = r
		s.resourceOrder = append(s.resourceOrder, r.Resource.URI)
	}
	return nil
}

// Tools returns the registered tool definitions in registration order.
func (s *Server) Tools() []Tool {
	out := make([]Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		out = append(out, s.tools[name].Tool)
	}
	return out
}

// Resources returns the registered resource descriptors in registration order.
func (s *Server) Resources() []Resource {
	out := make([]Resource, 0, len(s.resourceOrder))
	for _, uri := range s.resourceOrder {
		out = append(out, s.resources[uri].Resource)
	}
	return out
}

// Handle dispatches one JSON-RPC request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if IsNotification(req) {
		s.logger.DebugContext(ctx, "mcp_notification", "method", req.Method)
		return nil
	}

	result, err := s.dispatch(ctx, req)
	if err != nil {
		rpcErr := FormatMCPError(err)
		return NewJSONRPCError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return NewJSONRPCResult(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, req *JSONRPCRequest) (any, error) {
	switch req.Method {
	case MethodInitialize:
		LogMCPRequest(ctx, s.logger, req.Method, "")
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: map[string]any{
				"tools":     map[string]any{"listChanged": false},
				"resources": map[string]any{"listChanged": false, "subscribe": false},
			},
			ServerInfo:   s.info,
			Instructions: s.instructions,
		}, nil

	case MethodPing:
		return map[string]any{}, nil

	case MethodListTools, methodListToolsAlias:
		return ListToolsResult{Tools: s.Tools()}, nil

	case MethodCallTool, methodCallToolAlias:
		params, err := ParseCallToolParams(req.Params)
		if err != nil {
			return nil, err
		}
		return s.CallTool(ctx, params.Name, params.Arguments)

	case MethodListResources:
		return ListResourcesResult{Resources: s.Resources()}, nil

	case MethodReadResource:
		params, err := ParseReadResourceParams(req.Params)
		if err != nil {
			return nil, err
		}
		return s.ReadResource(ctx, params.URI)

	default:
		return nil, &RPCError{
			Code:    MethodNotFound,
			Message: "Unknown method",
			Data:    req.Method,
		}
	}
}

// CallTool runs the named tool. Unknown tools are a protocol error; failures
// inside the tool are returned as an isError result.
func (s *Server) CallTool(ctx context.Context, name string, args json.RawMessage) (result *CallToolResult, err error) {
	t, ok := s.tools[name]
	if !ok {
		return nil, &RPCError{
			Code:    MethodNotFound,
			Message: "Unknown tool",
			Data:    name,
		}
	}

	LogMCPRequest(ctx, s.logger, MethodCallTool, name)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result, err = ToolFailure(fmt.Errorf("tool panicked: %v", p)), nil
		}

		elapsed := time.Since(start)
		switch {
		case err != nil:
			rpcErr := FormatMCPError(err)
			LogMCPError(ctx, s.logger, name, "", rpcErr.Code, rpcErr.Message)
			s.metrics.RecordToolCall(name, "protocol_error", elapsed)
		case result.IsError:
			te, _ := result.StructuredContent.(ToolError)
			LogMCPError(ctx, s.logger, name, te.Kind, 0, te.Message)
			s.metrics.RecordToolCall(name, "error", elapsed)
			s.metrics.RecordError("tool", string(te.Kind))
		default:
			LogMCPSuccess(ctx, s.logger, name, elapsed.Milliseconds())
			s.metrics.RecordToolCall(name, "success", elapsed)
		}
	}()

	result, err = t.Handler(ctx, args)
	if err != nil {
		if _, isRPC := err.(*RPCError); isRPC {
			return nil, err
		}
		return ToolFailure(err), nil
	}
	if result == nil {
		result = &CallToolResult{Content: []TextContent{}}
	}
	return result, nil
}

// ReadResource returns the JSON body of the resource at uri.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	r, ok := s.resources[uri]
	if !ok {
		return nil, &RPCError{
			Code:    ResourceNotFound,
			Message: "Resource not found",
			Data:    uri,
		}
	}

	LogMCPRequest(ctx, s.logger, MethodReadResource, uri)

	body, err := r.Read(ctx)
	if err != nil {
		return nil, FormatMCPError(err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, FormatMCPError(fmt.Errorf("marshal resource: %w", err))
	}

	return &ReadResourceResult{
		Contents: []ResourceContents{{URI: uri, MimeType: r.Resource.MimeType, Text: string(data)}},
	}, nil
}
