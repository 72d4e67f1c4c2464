package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeStdio(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, &calls)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":"two","method":"tools/call","params":{"name":"grp_echo","arguments":{"count":2}}}`,
		`{not json`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, s.ServeStdio(context.Background(), strings.NewReader(in), &out))

	var lines []map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 3)

	assert.Equal(t, 1.0, lines[0]["id"])
	assert.Contains(t, lines[0], "result")

	assert.Equal(t, "two", lines[1]["id"])
	result := lines[1]["result"].(map[string]any)
	assert.NotContains(t, result, "isError")

	errObj := lines[2]["error"].(map[string]any)
	assert.Equal(t, float64(ParseError), errObj["code"])
	assert.Equal(t, int32(1), calls.Load())
}

func TestServeStdio_StopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, &calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.ServeStdio(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestServeStdio_StopsWhileInputIsIdle(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, &calls)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		errCh <- s.ServeStdio(ctx, pr, &out)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeStdio did not return after cancellation")
	}
	assert.Empty(t, out.String())
}

func TestServeStdio_ServesLinesAsTheyArrive(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, &calls)

	pr, pw := io.Pipe()
	outR, outW := io.Pipe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ServeStdio(context.Background(), pr, outW)
		outW.Close()
	}()

	reader := bufio.NewReader(outR)
	for _, id := range []string{"1", "2"} {
		_, err := io.WriteString(pw, `{"jsonrpc":"2.0","id":`+id+`,"method":"ping"}`+"\n")
		require.NoError(t, err)

		line, err := reader.ReadBytes('\n')
		require.NoError(t, err)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(line, &resp))
		assert.Contains(t, resp, "result")
	}

	require.NoError(t, pw.Close())
	require.NoError(t, <-errCh)
}
