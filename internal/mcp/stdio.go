package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// maxMessageBytes bounds a single newline-delimited stdio message.
const maxMessageBytes = 4 << 20

// HandleMessage parses and dispatches one encoded JSON-RPC request. It returns
// nil when no response is due.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *JSONRPCResponse {
	req, err := ParseJSONRPCRequest(bytes.NewReader(data))
	if err != nil {
		rpcErr := FormatMCPError(err)
		return NewJSONRPCError(nil, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return s.Handle(ctx, req)
}

// ServeStdio answers newline-delimited JSON-RPC requests read from r, one
// response line per request, until r reaches EOF or ctx is cancelled.
// Requests are served sequentially. Reads happen on a separate goroutine so
// cancellation is observed while r is idle; that goroutine exits on the next
// read r returns.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	enc := json.NewEncoder(w)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			line []byte
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			if err := <-readErr; err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			return nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}
