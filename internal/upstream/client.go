// Package upstream is the single point of contact with the Ranger SOR and
// Data REST APIs.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/ranger-finance/ranger-agent-kit/internal/config"
	"github.com/ranger-finance/ranger-agent-kit/internal/instrumentation"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 10 << 20

// Client calls the upstream APIs. It is safe for concurrent use.
type Client struct {
	apiKey      string
	sorBaseURL  string
	dataBaseURL string
	httpClient  *http.Client
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// New creates a client from the startup configuration. metrics may be nil.
func New(cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		sorBaseURL:  cfg.SORBaseURL,
		dataBaseURL: cfg.DataBaseURL,
		httpClient:  &http.Client{Timeout: cfg.UpstreamTimeout()},
		metrics:     metrics,
		logger:      logger.With("component", "upstream_client"),
	}
}

// CallTradingAPI sends body as JSON to a SOR endpoint. Only POST is
// supported; other methods fail with ErrUnsupportedMethod before any I/O.
// Optional fields of body must carry omitempty so absent values are not sent.
func (c *Client) CallTradingAPI(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	if !strings.EqualFold(method, http.MethodPost) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedMethod, method, endpoint)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ProtocolError{API: APITrading, Cause: fmt.Errorf("marshal request body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sorBaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProtocolError{API: APITrading, Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, APITrading, endpoint)
}

// CallDataAPI issues a GET to a Data API endpoint. q is a struct with url
// tags; nil pointers and empty slices are omitted and slices become repeated
// keys. q may be nil.
func (c *Client) CallDataAPI(ctx context.Context, endpoint string, q any) (json.RawMessage, error) {
	target := c.dataBaseURL + endpoint
	if q != nil {
		values, err := query.Values(q)
		if err != nil {
			return nil, &ProtocolError{API: APIData, Cause: fmt.Errorf("encode query: %w", err)}
		}
		if encoded := values.Encode(); encoded != "" {
			target += "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &ProtocolError{API: APIData, Cause: fmt.Errorf("build request: %w", err)}
	}

	return c.do(req, APIData, endpoint)
}

// do performs exactly one attempt and classifies the outcome.
func (c *Client) do(req *http.Request, api API, endpoint string) (json.RawMessage, error) {
	startTime := time.Now()
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.roundTrip(req, api)
	elapsed := time.Since(startTime)

	c.metrics.RecordUpstream(string(api), endpoint, StatusClass(err), elapsed)

	if err != nil {
		c.metrics.RecordError("upstream", StatusClass(err))
		c.logger.Warn("upstream_error",
			"api", api,
			"method", req.Method,
			"endpoint", endpoint,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	c.logger.Debug("upstream_request",
		"api", api,
		"method", req.Method,
		"endpoint", endpoint,
		"status", status,
		"latency_ms", elapsed.Milliseconds(),
		"bytes", len(raw),
	)

	return raw, nil
}

func (c *Client) roundTrip(req *http.Request, api API) (json.RawMessage, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{API: api, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{API: api, Cause: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &HTTPError{API: api, Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	if !json.Valid(body) {
		return nil, resp.StatusCode, &ProtocolError{API: api, Cause: fmt.Errorf("response body is not valid JSON")}
	}

	return json.RawMessage(body), resp.StatusCode, nil
}

// errorDetail prefers the message field of a JSON error body and falls back
// to the raw text.
func errorDetail(body []byte) string {
	var payload struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != nil {
		if s, ok := payload.Message.(string); ok {
			return s
		}
		return fmt.Sprint(payload.Message)
	}
	return strings.TrimSpace(string(body))
}
