package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranger-finance/ranger-agent-kit/internal/config"
	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
	"github.com/ranger-finance/ranger-agent-kit/internal/upstream"
)

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	APIKey string
}

type harness struct {
	server *mcp.Server
	cfg    *config.Config

	mu       sync.Mutex
	requests []recorded
}

func (h *harness) calls() []recorded {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recorded(nil), h.requests...)
}

func newHarness(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *harness {
	t.Helper()
	h := &harness{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), APIKey: r.Header.Get("x-api-key")}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.Body)
			}
		}
		h.mu.Lock()
		h.requests = append(h.requests, rec)
		h.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	h.cfg = &config.Config{
		APIKey:             "secret",
		SORBaseURL:         srv.URL + "/sor",
		DataBaseURL:        srv.URL + "/data",
		UpstreamTimeoutSec: 5,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server, err := NewServer(h.cfg, upstream.New(h.cfg, nil, logger), nil, logger)
	require.NoError(t, err)
	h.server = server
	return h
}

func respondJSON(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func (h *harness) call(t *testing.T, name, args string) *mcp.CallToolResult {
	t.Helper()
	res, err := h.server.CallTool(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func failure(t *testing.T, res *mcp.CallToolResult) mcp.ToolError {
	t.Helper()
	require.True(t, res.IsError, "expected failure, got %s", res.Content[0].Text)
	te, ok := res.StructuredContent.(mcp.ToolError)
	require.True(t, ok)
	return te
}

const increaseArgs = `{"fee_payer":"X","symbol":"SOL","side":"Long","size":0.1,"collateral":10,"size_denomination":"SOL","adjustment_type":"Increase","slippage_bps":100}`

const envelopeBody = `{
	"message": "BASE64...",
	"meta": {
		"venues": [
			{"venue_name":"Jupiter","collateral":10,"size":0.1,"quote":{"base":150,"total":150.2,"fee_breakdown":{"base_fee":0.2}},"price":150.2,"order_available_liquidity":1000,"venue_available_liquidity":9000}
		],
		"total_collateral": 10,
		"total_size": 0.1,
		"average_price": 150.2
	},
	"average_price": 150.2,
	"size": 0.1
}`

func TestToolsList(t *testing.T) {
	h := newHarness(t, respondJSON(`{}`))

	var names []string
	for _, tool := range h.server.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}

	assert.Equal(t, []string{
		"sor_get_trade_quote",
		"sor_increase_position",
		"sor_decrease_position",
		"sor_close_position",
		"sor_withdraw_balance_drift",
		"data_get_positions",
		"data_get_trade_history",
		"data_get_latest_liquidations",
		"data_get_liquidation_totals",
		"data_get_liquidation_capitulation_signals",
		"data_get_liquidation_heatmap",
		"data_get_largest_liquidations",
		"data_get_funding_rate_arbs",
		"data_get_accumulated_funding_rates",
		"data_get_accumulated_borrow_rates",
		"data_get_extreme_funding_rates",
		"data_get_oi_weighted_funding_rates",
		"data_get_funding_rate_trend",
		"ranger_status",
	}, names)
}

func TestIncreasePosition_EndToEnd(t *testing.T) {
	h := newHarness(t, respondJSON(envelopeBody))

	res := h.call(t, "sor_increase_position", increaseArgs)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Equal(t, "BASE64...", res.Content[0].Text)

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/sor/v1/increase_position", calls[0].Path)
	assert.Equal(t, "secret", calls[0].APIKey)
	assert.Equal(t, map[string]any{
		"fee_payer":               "X",
		"symbol":                  "SOL",
		"side":                    "Long",
		"size":                    0.1,
		"collateral":              10.0,
		"size_denomination":       "SOL",
		"collateral_denomination": "USDC",
		"adjustment_type":         "Increase",
		"slippage_bps":            100.0,
	}, calls[0].Body)
}

func TestTradingTools_NonPositiveSizeNeverReachesUpstream(t *testing.T) {
	h := newHarness(t, respondJSON(envelopeBody))

	tools := map[string]string{
		"sor_get_trade_quote":   "Increase",
		"sor_increase_position": "Increase",
		"sor_decrease_position": "DecreaseDrift",
	}
	for name, adjustment := range tools {
		for _, size := range []string{"0", "-0.5"} {
			args := `{"fee_payer":"X","symbol":"SOL","side":"Long","size":` + size +
				`,"collateral":1,"size_denomination":"SOL","adjustment_type":"` + adjustment + `"}`
			te := failure(t, h.call(t, name, args))
			assert.Equal(t, mcp.KindValidation, te.Kind)
			assert.Contains(t, te.Fields, "size")
		}
	}
	assert.Empty(t, h.calls())
}

func TestDecreasePosition_ZeroCollateralAllowed(t *testing.T) {
	h := newHarness(t, respondJSON(envelopeBody))

	res := h.call(t, "sor_decrease_position", `{"fee_payer":"X","symbol":"SOL","side":"Short","size":0.1,"collateral":0,"size_denomination":"SOL","adjustment_type":"DecreaseFlash"}`)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Len(t, h.calls(), 1)
}

func TestClosePosition_RejectsIncreaseAdjustment(t *testing.T) {
	h := newHarness(t, respondJSON(envelopeBody))

	te := failure(t, h.call(t, "sor_close_position", `{"fee_payer":"X","symbol":"SOL","side":"Long","adjustment_type":"Increase"}`))
	assert.Equal(t, mcp.KindValidation, te.Kind)
	assert.Equal(t, []string{"adjustment_type"}, te.Fields)
	assert.Empty(t, h.calls())

	res := h.call(t, "sor_close_position", `{"fee_payer":"X","symbol":"SOL","side":"Long","adjustment_type":"CloseAll"}`)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Equal(t, "BASE64...", res.Content[0].Text)
	require.Len(t, h.calls(), 1)
	assert.NotContains(t, h.calls()[0].Body, "size")
}

func TestGetTradeQuote_RoundTrip(t *testing.T) {
	h := newHarness(t, respondJSON(`{
		"venues": [
			{"venue_name":"Jupiter","collateral":4,"size":0.04,"quote":{"base":150,"fee":0.1,"total":150.1,"fee_breakdown":{"base_fee":0.1}},"order_available_liquidity":100,"venue_available_liquidity":1000},
			{"venue_name":"Flash","collateral":3,"size":0.03,"quote":{"base":150.1,"total":150.3,"fee_breakdown":{"base_fee_per_unit":0.2,"spread_fee":null}},"order_available_liquidity":100,"venue_available_liquidity":1000},
			{"venue_name":"Drift","collateral":3,"size":0.03,"quote":{"base":150.2,"total_fee_per_unit":0.1,"total":150.3,"fee_breakdown":{}},"order_available_liquidity":100,"venue_available_liquidity":1000}
		],
		"total_collateral": 10,
		"total_size": 0.1,
		"average_price": 150.23
	}`))

	res := h.call(t, "sor_get_trade_quote", `{"fee_payer":"X","symbol":"SOL","side":"Long","size":0.1,"collateral":10,"size_denomination":"SOL","adjustment_type":"Increase","target_venues":["Jupiter","Flash","Drift"]}`)
	require.False(t, res.IsError, res.Content[0].Text)

	var quote struct {
		Venues          []map[string]any `json:"venues"`
		TotalCollateral *float64         `json:"total_collateral"`
		TotalSize       *float64         `json:"total_size"`
		AveragePrice    *float64         `json:"average_price"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &quote))
	assert.Len(t, quote.Venues, 3)
	require.NotNil(t, quote.TotalCollateral)
	require.NotNil(t, quote.TotalSize)
	require.NotNil(t, quote.AveragePrice)
	assert.Equal(t, 150.23, *quote.AveragePrice)
	assert.NotNil(t, res.StructuredContent)

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/sor/v1/order_metadata", calls[0].Path)
	assert.Equal(t, []any{"Jupiter", "Flash", "Drift"}, calls[0].Body["target_venues"])
}

func TestTradingTools_Unauthorized(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
	})

	for _, tc := range []struct{ name, args string }{
		{"sor_get_trade_quote", increaseArgs},
		{"sor_increase_position", increaseArgs},
		{"sor_close_position", `{"fee_payer":"X","symbol":"BTC","side":"Short","adjustment_type":"CloseDrift"}`},
		{"sor_withdraw_balance_drift", `{"fee_payer":"X","symbol":"USDC","amount":5}`},
	} {
		res := h.call(t, tc.name, tc.args)
		te := failure(t, res)
		assert.Equal(t, mcp.KindUpstreamHTTP, te.Kind)
		assert.Equal(t, http.StatusUnauthorized, te.Status)
		assert.Contains(t, res.Content[0].Text, "401")
		assert.Contains(t, res.Content[0].Text, "Missing or invalid API key")
	}
}

func TestWithdrawBalance(t *testing.T) {
	h := newHarness(t, respondJSON(`{"message":"WITHDRAW64"}`))

	res := h.call(t, "sor_withdraw_balance_drift", `{"fee_payer":"X","symbol":"USDC","amount":25.5}`)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Equal(t, "WITHDRAW64", res.Content[0].Text)

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/sor/v1/withdraw_balance", calls[0].Path)
	assert.Equal(t, 0.0, calls[0].Body["sub_account_id"])
	assert.Equal(t, "WithdrawBalanceDrift", calls[0].Body["adjustment_type"])
}

func TestWithdrawBalance_MissingMessageFails(t *testing.T) {
	for _, body := range []string{`{}`, `{"message":""}`, `{"tx":"abc"}`} {
		h := newHarness(t, respondJSON(body))

		te := failure(t, h.call(t, "sor_withdraw_balance_drift", `{"fee_payer":"X","symbol":"USDC","amount":1}`))
		assert.Equal(t, mcp.KindResponseShape, te.Kind, body)
		assert.Contains(t, te.Message, "/v1/withdraw_balance")
	}
}

func TestLiquidationTotals_EachCallHitsUpstream(t *testing.T) {
	var mu sync.Mutex
	n := 0
	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		n++
		hour := n
		mu.Unlock()
		respondJSON(`{"last_1h":` + string(rune('0'+hour)) + `,"last_4h":10,"last_12h":20,"last_24h":30}`)(w, nil)
	})

	first := h.call(t, "data_get_liquidation_totals", `{}`)
	second := h.call(t, "data_get_liquidation_totals", "")
	require.False(t, first.IsError, first.Content[0].Text)
	require.False(t, second.IsError, second.Content[0].Text)

	assert.JSONEq(t, `{"last_1h":1,"last_4h":10,"last_12h":20,"last_24h":30}`, first.Content[0].Text)
	assert.JSONEq(t, `{"last_1h":2,"last_4h":10,"last_12h":20,"last_24h":30}`, second.Content[0].Text)

	calls := h.calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, http.MethodGet, c.Method)
		assert.Equal(t, "/data/v1/liquidations/totals", c.Path)
		assert.Empty(t, c.Query)
	}
}

func TestDataTools_QueryDefaults(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/v1/funding_rates/extreme" {
			respondJSON(`{"highest":[],"lowest":[]}`)(w, r)
			return
		}
		respondJSON(`[]`)(w, r)
	})

	tests := []struct {
		tool  string
		args  string
		path  string
		query url.Values
	}{
		{"data_get_liquidation_capitulation_signals", `{}`, "/data/v1/liquidations/capitulation", url.Values{"threshold": {"2"}}},
		{"data_get_liquidation_capitulation_signals", `{"threshold":3.5}`, "/data/v1/liquidations/capitulation", url.Values{"threshold": {"3.5"}}},
		{"data_get_liquidation_heatmap", `{}`, "/data/v1/liquidations/heatmap", url.Values{"granularity": {"1h"}}},
		{"data_get_largest_liquidations", `{}`, "/data/v1/liquidations/largest", url.Values{"granularity": {"1d"}, "limit": {"50"}}},
		{"data_get_funding_rate_arbs", `{}`, "/data/v1/funding_rates/arbs", url.Values{"min_diff": {"0.0001"}}},
		{"data_get_extreme_funding_rates", `{"limit":5}`, "/data/v1/funding_rates/extreme", url.Values{"granularity": {"1h"}, "limit": {"5"}}},
		{"data_get_accumulated_funding_rates", `{}`, "/data/v1/funding_rates/accumulated", url.Values{}},
		{"data_get_accumulated_borrow_rates", `{"symbol":"USDC","platform":"DRIFT"}`, "/data/v1/borrow_rates/accumulated", url.Values{"symbol": {"USDC"}, "platform": {"DRIFT"}}},
		{"data_get_latest_liquidations", ``, "/data/v1/liquidations/latest", url.Values{}},
		{"data_get_oi_weighted_funding_rates", `{}`, "/data/v1/funding_rates/oi_weighted", url.Values{}},
		{"data_get_funding_rate_trend", `{"symbol":"SOL-PERP"}`, "/data/v1/funding_rates/trend", url.Values{"symbol": {"SOL-PERP"}}},
	}

	for i, tt := range tests {
		res := h.call(t, tt.tool, tt.args)
		require.False(t, res.IsError, "%s: %s", tt.tool, res.Content[0].Text)

		calls := h.calls()
		require.Len(t, calls, i+1)
		last := calls[i]
		assert.Equal(t, tt.path, last.Path, tt.tool)
		assert.Equal(t, tt.query, last.Query, tt.tool)
	}
}

func TestDataTools_ValidationFailures(t *testing.T) {
	h := newHarness(t, respondJSON(`[]`))

	for _, tc := range []struct{ tool, args, field string }{
		{"data_get_liquidation_heatmap", `{"granularity":"7d"}`, "granularity"},
		{"data_get_largest_liquidations", `{"limit":0}`, "limit"},
		{"data_get_liquidation_capitulation_signals", `{"threshold":-1}`, "threshold"},
		{"data_get_funding_rate_arbs", `{"min_diff":-0.1}`, "min_diff"},
		{"data_get_positions", `{}`, "public_key"},
		{"data_get_funding_rate_trend", `{"platform":"DRIFT"}`, "symbol"},
	} {
		te := failure(t, h.call(t, tc.tool, tc.args))
		assert.Equal(t, mcp.KindValidation, te.Kind, tc.tool)
		assert.Contains(t, te.Fields, tc.field, tc.tool)
	}
	assert.Empty(t, h.calls())
}

func TestGetPositions_PassesFilters(t *testing.T) {
	h := newHarness(t, respondJSON(`{"positions":[{
		"id":"p1","symbol":"SOL-PERP","side":"Long","quantity":1,"entry_price":150,"liquidation_price":null,
		"position_leverage":2,"real_collateral":75,"borrow_fee":0,"funding_fee":0.1,"open_fee":0.05,"close_fee":0,
		"created_at":"2024-01-01T00:00:00Z","opened_at":"2024-01-01T00:00:00Z","platform":"DRIFT"}]}`))

	res := h.call(t, "data_get_positions", `{"public_key":"abc","platforms":["DRIFT","FLASH"],"from_date":"2024-01-01T00:00:00Z"}`)
	require.False(t, res.IsError, res.Content[0].Text)

	var out struct {
		Positions []map[string]any `json:"positions"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &out))
	require.Len(t, out.Positions, 1)
	assert.NotContains(t, out.Positions[0], "liquidation_price")

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, url.Values{
		"public_key": {"abc"},
		"platforms":  {"DRIFT", "FLASH"},
		"from":       {"2024-01-01T00:00:00Z"},
	}, calls[0].Query)
}

func TestFundingRateArbs_DecimalRates(t *testing.T) {
	h := newHarness(t, respondJSON(`[{"symbol":"SOL-PERP","platform_a":"DRIFT","rate_a":0.0003,"platform_b":"FLASH","rate_b":0.0001,"rate_diff":"0.00020000000000000001"}]`))

	res := h.call(t, "data_get_funding_rate_arbs", `{"min_diff":0}`)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Contains(t, res.Content[0].Text, `"rate_diff":"0.00020000000000000001"`)
	assert.Nil(t, res.StructuredContent)
}

func TestDataTools_ShapeMismatch(t *testing.T) {
	h := newHarness(t, respondJSON(`[{"symbol":"SOL-PERP","platform":"DRIFT"}]`))

	te := failure(t, h.call(t, "data_get_funding_rate_trend", `{"symbol":"SOL-PERP"}`))
	assert.Equal(t, mcp.KindResponseShape, te.Kind)
	assert.Contains(t, te.Message, "/v1/funding_rates/trend")
}

func TestDataTools_UpstreamError(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})

	res := h.call(t, "data_get_latest_liquidations", `{}`)
	te := failure(t, res)
	assert.Equal(t, mcp.KindUpstreamHTTP, te.Kind)
	assert.Equal(t, "Ranger Data API Error (503): maintenance", res.Content[0].Text)
}

func TestRangerStatus(t *testing.T) {
	h := newHarness(t, respondJSON(`{}`))

	res := h.call(t, "ranger_status", `{}`)
	require.False(t, res.IsError)

	var status Status
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &status))
	assert.Equal(t, "OK", status.Status)
	assert.Equal(t, h.cfg.SORBaseURL, status.SORBaseURL)
	assert.Equal(t, h.cfg.DataBaseURL, status.DataBaseURL)
	assert.Equal(t, Version, status.Version)
	assert.Equal(t, 19, status.ToolCount)
	assert.Empty(t, h.calls())
}

func TestResources(t *testing.T) {
	h := newHarness(t, respondJSON(`{}`))

	resources := h.server.Resources()
	assert.Len(t, resources, 18)

	read, err := h.server.ReadResource(context.Background(), "sor://increase_position")
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)

	var desc ResourceDescriptor
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &desc))
	assert.Equal(t, "increase_position", desc.Resource)
	assert.Contains(t, desc.Description, "signed and submitted")

	_, err = h.server.ReadResource(context.Background(), "data://get_funding_rate_trend")
	require.NoError(t, err)
	assert.Empty(t, h.calls())
}

func TestNoArgumentTools_AcceptNullArguments(t *testing.T) {
	h := newHarness(t, respondJSON(`{"last_1h":1,"last_4h":2,"last_12h":3,"last_24h":4}`))

	res := h.call(t, "data_get_liquidation_totals", `null`)
	require.False(t, res.IsError, res.Content[0].Text)

	res = h.call(t, "ranger_status", `null`)
	require.False(t, res.IsError, res.Content[0].Text)

	assert.Len(t, h.calls(), 1)
}
