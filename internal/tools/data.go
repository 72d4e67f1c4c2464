package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
	"github.com/ranger-finance/ranger-agent-kit/internal/models"
	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
	"github.com/ranger-finance/ranger-agent-kit/internal/upstream"
)

// Data API endpoints.
const (
	EndpointPositions              = "/v1/positions"
	EndpointTradeHistory           = "/v1/trade_history"
	EndpointLatestLiquidations     = "/v1/liquidations/latest"
	EndpointLiquidationTotals      = "/v1/liquidations/totals"
	EndpointCapitulation           = "/v1/liquidations/capitulation"
	EndpointHeatmap                = "/v1/liquidations/heatmap"
	EndpointLargestLiquidations    = "/v1/liquidations/largest"
	EndpointFundingRateArbs        = "/v1/funding_rates/arbs"
	EndpointAccumulatedFunding     = "/v1/funding_rates/accumulated"
	EndpointAccumulatedBorrow      = "/v1/borrow_rates/accumulated"
	EndpointExtremeFundingRates    = "/v1/funding_rates/extreme"
	EndpointOIWeightedFundingRates = "/v1/funding_rates/oi_weighted"
	EndpointFundingRateTrend       = "/v1/funding_rates/trend"
)

// Query defaults sent when the caller leaves the field out.
const (
	DefaultCapitulationThreshold = 2.0
	DefaultHeatmapGranularity    = "1h"
	DefaultLargestGranularity    = "1d"
	DefaultLargestLimit          = 50
	DefaultArbMinDiff            = 0.0001
	DefaultExtremeGranularity    = "1h"
	DefaultExtremeLimit          = 10
)

var (
	positionsSchema    = schema.MustCompile[models.GetPositionsResponse]()
	tradeHistorySchema = schema.MustCompile[models.GetTradeHistoryResponse]()
	liquidationsSchema = schema.MustCompileList[models.Liquidation]()
	totalsSchema       = schema.MustCompile[models.LiquidationTotals]()
	capitulationSchema = schema.MustCompileList[models.CapitulationSignal]()
	heatmapSchema      = schema.MustCompileList[models.LiquidationHeatmapEntry]()
	largestSchema      = schema.MustCompileList[models.LargestLiquidation]()
	arbsSchema         = schema.MustCompileList[models.FundingRateArb]()
	accumulatedSchema  = schema.MustCompileList[models.AccumulatedRate]()
	extremeSchema      = schema.MustCompile[models.ExtremeFundingRates]()
	oiWeightedSchema   = schema.MustCompileList[models.OIWeightedFundingRate]()
	fundingTrendSchema = schema.MustCompileList[models.FundingRateTrend]()
)

// DataClient calls the Data API.
type DataClient interface {
	CallDataAPI(ctx context.Context, endpoint string, query any) (json.RawMessage, error)
}

type dataTools struct {
	client DataClient
	logger *slog.Logger
}

// NewDataGroup builds the read-only data tools. Every call is forwarded as is;
// nothing is filtered, aggregated or cached locally.
func NewDataGroup(client DataClient, logger *slog.Logger) (*mcp.Group, error) {
	d := &dataTools{
		client: client,
		logger: logger.With("component", "data_tools"),
	}

	g := mcp.NewGroup()
	err := register(g,
		entry(mcp.NewTool("get_positions",
			"Retrieve user positions across venues, with optional filters.",
			d.getPositions)),
		entry(mcp.NewTool("get_trade_history",
			"Retrieve user trade history across venues, with optional filters.",
			d.getTradeHistory)),
		entry(mcp.NewTool("get_latest_liquidations",
			"Fetches the 10 most recent liquidation events.",
			d.getLatestLiquidations)),
		entry(mcp.NewTool("get_liquidation_totals",
			"Provides total USD value of liquidations over recent time intervals (1h, 4h, 12h, 24h).",
			d.getLiquidationTotals)),
		entry(mcp.NewTool("get_liquidation_capitulation_signals",
			"Identifies potential market capitulation events based on liquidation volume exceeding statistical norms (Z-score).",
			d.getCapitulationSignals)),
		entry(mcp.NewTool("get_liquidation_heatmap",
			"Provides aggregated liquidation values (USD) bucketed by time granularity over the last 7 days.",
			d.getLiquidationHeatmap)),
		entry(mcp.NewTool("get_largest_liquidations",
			"Retrieves the largest individual liquidation events within a specified time window.",
			d.getLargestLiquidations)),
		entry(mcp.NewTool("get_funding_rate_arbs",
			"Identifies potential funding rate arbitrage opportunities between platforms.",
			d.getFundingRateArbs)),
		entry(mcp.NewTool("get_accumulated_funding_rates",
			"Retrieves historical accumulated funding rates.",
			d.getAccumulatedFundingRates)),
		entry(mcp.NewTool("get_accumulated_borrow_rates",
			"Retrieves historical accumulated borrow rates.",
			d.getAccumulatedBorrowRates)),
		entry(mcp.NewTool("get_extreme_funding_rates",
			"Fetches markets with the highest and lowest accumulated funding rates.",
			d.getExtremeFundingRates)),
		entry(mcp.NewTool("get_oi_weighted_funding_rates",
			"Provides the open interest-weighted average funding rate for each symbol across all platforms.",
			d.getOIWeightedFundingRates)),
		entry(mcp.NewTool("get_funding_rate_trend",
			"Calculates the recent funding rate trend for a symbol, optionally by platform.",
			d.getFundingRateTrend)),
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// fetch issues one GET and decodes the response against its contract.
func fetch[T any](ctx context.Context, d *dataTools, endpoint string, query any, v *schema.Validator) (T, error) {
	d.logger.InfoContext(ctx, "data_requested", "endpoint", endpoint)

	raw, err := d.client.CallDataAPI(ctx, endpoint, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return upstream.Decode[T](raw, v, upstream.APIData, endpoint)
}

func (d *dataTools) getPositions(ctx context.Context, q models.PositionsQuery) (models.GetPositionsResponse, error) {
	return fetch[models.GetPositionsResponse](ctx, d, EndpointPositions, q, positionsSchema)
}

func (d *dataTools) getTradeHistory(ctx context.Context, q models.TradeHistoryQuery) (models.GetTradeHistoryResponse, error) {
	return fetch[models.GetTradeHistoryResponse](ctx, d, EndpointTradeHistory, q, tradeHistorySchema)
}

func (d *dataTools) getLatestLiquidations(ctx context.Context, _ models.EmptyQuery) ([]models.Liquidation, error) {
	return fetch[[]models.Liquidation](ctx, d, EndpointLatestLiquidations, nil, liquidationsSchema)
}

func (d *dataTools) getLiquidationTotals(ctx context.Context, _ models.EmptyQuery) (models.LiquidationTotals, error) {
	return fetch[models.LiquidationTotals](ctx, d, EndpointLiquidationTotals, nil, totalsSchema)
}

func (d *dataTools) getCapitulationSignals(ctx context.Context, q models.CapitulationQuery) ([]models.CapitulationSignal, error) {
	if q.Threshold == nil {
		q.Threshold = ptr(DefaultCapitulationThreshold)
	}
	return fetch[[]models.CapitulationSignal](ctx, d, EndpointCapitulation, q, capitulationSchema)
}

func (d *dataTools) getLiquidationHeatmap(ctx context.Context, q models.HeatmapQuery) ([]models.LiquidationHeatmapEntry, error) {
	if q.Granularity == nil {
		q.Granularity = ptr(DefaultHeatmapGranularity)
	}
	return fetch[[]models.LiquidationHeatmapEntry](ctx, d, EndpointHeatmap, q, heatmapSchema)
}

func (d *dataTools) getLargestLiquidations(ctx context.Context, q models.LargestLiquidationsQuery) ([]models.LargestLiquidation, error) {
	if q.Granularity == nil {
		q.Granularity = ptr(DefaultLargestGranularity)
	}
	if q.Limit == nil {
		q.Limit = ptr[int64](DefaultLargestLimit)
	}
	return fetch[[]models.LargestLiquidation](ctx, d, EndpointLargestLiquidations, q, largestSchema)
}

func (d *dataTools) getFundingRateArbs(ctx context.Context, q models.FundingRateArbsQuery) ([]models.FundingRateArb, error) {
	if q.MinDiff == nil {
		q.MinDiff = ptr(DefaultArbMinDiff)
	}
	return fetch[[]models.FundingRateArb](ctx, d, EndpointFundingRateArbs, q, arbsSchema)
}

func (d *dataTools) getAccumulatedFundingRates(ctx context.Context, q models.AccumulatedRatesQuery) ([]models.AccumulatedRate, error) {
	return fetch[[]models.AccumulatedRate](ctx, d, EndpointAccumulatedFunding, q, accumulatedSchema)
}

func (d *dataTools) getAccumulatedBorrowRates(ctx context.Context, q models.AccumulatedRatesQuery) ([]models.AccumulatedRate, error) {
	return fetch[[]models.AccumulatedRate](ctx, d, EndpointAccumulatedBorrow, q, accumulatedSchema)
}

func (d *dataTools) getExtremeFundingRates(ctx context.Context, q models.ExtremeFundingRatesQuery) (models.ExtremeFundingRates, error) {
	if q.Granularity == nil {
		q.Granularity = ptr(DefaultExtremeGranularity)
	}
	if q.Limit == nil {
		q.Limit = ptr[int64](DefaultExtremeLimit)
	}
	return fetch[models.ExtremeFundingRates](ctx, d, EndpointExtremeFundingRates, q, extremeSchema)
}

func (d *dataTools) getOIWeightedFundingRates(ctx context.Context, _ models.EmptyQuery) ([]models.OIWeightedFundingRate, error) {
	return fetch[[]models.OIWeightedFundingRate](ctx, d, EndpointOIWeightedFundingRates, nil, oiWeightedSchema)
}

func (d *dataTools) getFundingRateTrend(ctx context.Context, q models.FundingRateTrendQuery) ([]models.FundingRateTrend, error) {
	return fetch[[]models.FundingRateTrend](ctx, d, EndpointFundingRateTrend, q, fundingTrendSchema)
}

func ptr[T any](v T) *T { return &v }
