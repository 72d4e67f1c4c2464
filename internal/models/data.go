package models

import "github.com/shopspring/decimal"

// Query contracts for the Data API. The json tags and constraints describe
// the tool arguments; the url tags describe the outbound query string.
// Pointer and slice fields are optional and omitted when absent.

// PositionsQuery filters /v1/positions. The upstream defaults from_date to
// two days ago when it is omitted.
type PositionsQuery struct {
	PublicKey string   `json:"public_key" url:"public_key" jsonschema:"minLength=1" jsonschema_description:"User's Solana wallet address"`
	Platforms []string `json:"platforms,omitempty" url:"platforms,omitempty" jsonschema_description:"Optional list of platforms to filter by (e.g. DRIFT or FLASH)"`
	Symbols   []string `json:"symbols,omitempty" url:"symbols,omitempty" jsonschema_description:"Optional list of symbols to filter by (e.g. SOL-PERP)"`
	FromDate  *string  `json:"from_date,omitempty" url:"from,omitempty" jsonschema_description:"Optional earliest position date (YYYY-MM-DDTHH:MM:SSZ). Defaults upstream to 2 days ago."`
}

// TradeHistoryQuery filters /v1/trade_history. The upstream window defaults
// to the last 30 days.
type TradeHistoryQuery struct {
	PublicKey string   `json:"public_key" url:"public_key" jsonschema:"minLength=1" jsonschema_description:"User's Solana wallet address"`
	Platforms []string `json:"platforms,omitempty" url:"platforms,omitempty" jsonschema_description:"Optional platforms filter"`
	Symbols   []string `json:"symbols,omitempty" url:"symbols,omitempty" jsonschema_description:"Optional symbols filter"`
	StartTime *string  `json:"start_time,omitempty" url:"start_time,omitempty" jsonschema_description:"Optional start time (YYYY-MM-DDTHH:MM:SSZ). Defaults upstream to 30 days ago."`
	EndTime   *string  `json:"end_time,omitempty" url:"end_time,omitempty" jsonschema_description:"Optional end time (YYYY-MM-DDTHH:MM:SSZ). Defaults upstream to now."`
}

// EmptyQuery is the argument object of tools that take no input.
type EmptyQuery struct{}

// CapitulationQuery filters /v1/liquidations/capitulation.
type CapitulationQuery struct {
	Threshold *float64 `json:"threshold,omitempty" url:"threshold,omitempty" jsonschema:"minimum=0,default=2.0" jsonschema_description:"Z-score threshold to trigger a signal (default 2.0)"`
}

// HeatmapQuery filters /v1/liquidations/heatmap.
type HeatmapQuery struct {
	Granularity *string `json:"granularity,omitempty" url:"granularity,omitempty" jsonschema:"enum=15m,enum=30m,enum=1h,enum=4h,enum=1d,default=1h" jsonschema_description:"Time bucket size (default 1h)"`
}

// LargestLiquidationsQuery filters /v1/liquidations/largest.
type LargestLiquidationsQuery struct {
	Granularity *string `json:"granularity,omitempty" url:"granularity,omitempty" jsonschema:"enum=15m,enum=30m,enum=1h,enum=4h,enum=1d,enum=7d,default=1d" jsonschema_description:"Time window to look back (default 1d)"`
	Limit       *int64  `json:"limit,omitempty" url:"limit,omitempty" jsonschema:"minimum=1,default=50" jsonschema_description:"Maximum number of liquidations to return (default 50)"`
}

// FundingRateArbsQuery filters /v1/funding_rates/arbs.
type FundingRateArbsQuery struct {
	MinDiff *float64 `json:"min_diff,omitempty" url:"min_diff,omitempty" jsonschema:"minimum=0,default=0.0001" jsonschema_description:"Minimum absolute rate difference as a decimal (0.0001 is 0.01%)"`
}

// AccumulatedRatesQuery filters the accumulated funding and borrow rate endpoints.
type AccumulatedRatesQuery struct {
	Symbol      *string `json:"symbol,omitempty" url:"symbol,omitempty" jsonschema_description:"Filter by market or asset symbol (e.g. SOL-PERP or USDC)"`
	Granularity *string `json:"granularity,omitempty" url:"granularity,omitempty" jsonschema:"enum=1h,enum=4h,enum=1d" jsonschema_description:"Time aggregation level"`
	Platform    *string `json:"platform,omitempty" url:"platform,omitempty" jsonschema_description:"Filter by platform"`
}

// ExtremeFundingRatesQuery filters /v1/funding_rates/extreme.
type ExtremeFundingRatesQuery struct {
	Granularity *string `json:"granularity,omitempty" url:"granularity,omitempty" jsonschema:"enum=1h,enum=4h,default=1h" jsonschema_description:"Time aggregation level (default 1h)"`
	Limit       *int64  `json:"limit,omitempty" url:"limit,omitempty" jsonschema:"minimum=1,default=10" jsonschema_description:"Number of highest and lowest rates to return (default 10)"`
}

// FundingRateTrendQuery filters /v1/funding_rates/trend.
type FundingRateTrendQuery struct {
	Symbol   string  `json:"symbol" url:"symbol" jsonschema:"minLength=1" jsonschema_description:"Market symbol to analyze (e.g. SOL-PERP)"`
	Platform *string `json:"platform,omitempty" url:"platform,omitempty" jsonschema_description:"Optional platform filter"`
}

// Position is an open or recently opened position on one venue.
type Position struct {
	ID               string   `json:"id"`
	Symbol           string   `json:"symbol"`
	Side             Side     `json:"side" jsonschema:"enum=Long,enum=Short"`
	Quantity         float64  `json:"quantity"`
	EntryPrice       float64  `json:"entry_price"`
	LiquidationPrice *float64 `json:"liquidation_price,omitempty"`
	PositionLeverage float64  `json:"position_leverage"`
	RealCollateral   float64  `json:"real_collateral"`
	BorrowFee        float64  `json:"borrow_fee"`
	FundingFee       float64  `json:"funding_fee"`
	OpenFee          float64  `json:"open_fee"`
	CloseFee         float64  `json:"close_fee"`
	CreatedAt        string   `json:"created_at"`
	OpenedAt         string   `json:"opened_at"`
	Platform         string   `json:"platform"`
}

// GetPositionsResponse wraps the positions list.
type GetPositionsResponse struct {
	Positions []Position `json:"positions"`
}

// Trade is one fill in the account's trade history.
type Trade struct {
	ID               string  `json:"id"`
	Symbol           string  `json:"symbol"`
	Side             Side    `json:"side" jsonschema:"enum=Long,enum=Short"`
	Quantity         float64 `json:"quantity"`
	EntryPrice       float64 `json:"entry_price"`
	FillPrice        float64 `json:"fill_price"`
	PositionLeverage float64 `json:"position_leverage"`
	RealizedPnL      float64 `json:"realized_pnl"`
	FeesPaid         float64 `json:"fees_paid"`
	OrderType        string  `json:"order_type"`
	OrderAction      string  `json:"order_action"`
	IsClosed         bool    `json:"is_closed"`
	CreatedAt        string  `json:"created_at"`
	OpenedAt         string  `json:"opened_at"`
	Platform         string  `json:"platform"`
	TxSignature      string  `json:"tx_signature"`
}

// GetTradeHistoryResponse wraps the trades list.
type GetTradeHistoryResponse struct {
	Trades []Trade `json:"trades"`
}

// Liquidation is a single liquidation event.
type Liquidation struct {
	ID               string  `json:"id"`
	MarketID         string  `json:"market_id"`
	UserAccount      string  `json:"user_account"`
	Liquidator       string  `json:"liquidator"`
	Platform         string  `json:"platform"`
	Quantity         float64 `json:"quantity"`
	Price            float64 `json:"price"`
	CreatedAt        string  `json:"created_at"`
	LiquidatorReward float64 `json:"liquidator_reward"`
	InsuranceFundFee float64 `json:"insurance_fund_fee"`
}

// LiquidationTotals is the USD value liquidated over trailing windows.
type LiquidationTotals struct {
	Last1h  float64 `json:"last_1h"`
	Last4h  float64 `json:"last_4h"`
	Last12h float64 `json:"last_12h"`
	Last24h float64 `json:"last_24h"`
}

// CapitulationSignal flags abnormal liquidation volume by Z-score.
type CapitulationSignal struct {
	Symbol          string  `json:"symbol"`
	Platform        string  `json:"platform"`
	ZScore          float64 `json:"z_score"`
	TotalLiquidated float64 `json:"total_liquidated"`
	MeanLiquidation float64 `json:"mean_liquidation"`
	StdDev          float64 `json:"std_dev"`
}

// LiquidationHeatmapEntry is one time bucket of liquidated USD value.
type LiquidationHeatmapEntry struct {
	Symbol             string  `json:"symbol"`
	Platform           string  `json:"platform"`
	Start              string  `json:"start"`
	TotalLiquidatedUSD float64 `json:"total_liquidated_usd"`
}

// LargestLiquidation is one of the biggest liquidations in a window.
type LargestLiquidation struct {
	Symbol           string  `json:"symbol"`
	Platform         string  `json:"platform"`
	Timestamp        string  `json:"timestamp"`
	Quantity         float64 `json:"quantity"`
	Price            float64 `json:"price"`
	ValueUSD         float64 `json:"value_usd"`
	LiquidatorReward float64 `json:"liquidator_reward"`
}

// FundingRateArb pairs two platforms quoting different funding for a symbol.
type FundingRateArb struct {
	Symbol    string          `json:"symbol"`
	PlatformA string          `json:"platform_a"`
	RateA     float64         `json:"rate_a"`
	PlatformB string          `json:"platform_b"`
	RateB     float64         `json:"rate_b"`
	RateDiff  decimal.Decimal `json:"rate_diff"`
}

// AccumulatedRate is a funding or borrow rate accumulated over a granularity bucket.
type AccumulatedRate struct {
	Platform        string          `json:"platform"`
	Symbol          string          `json:"symbol"`
	CreatedAt       string          `json:"created_at"`
	AccumulatedRate decimal.Decimal `json:"accumulated_rate"`
	BaseGranularity string          `json:"base_granularity"`
}

// ExtremeFundingRates lists the markets with the highest and lowest funding.
type ExtremeFundingRates struct {
	Highest []AccumulatedRate `json:"highest"`
	Lowest  []AccumulatedRate `json:"lowest"`
}

// OIWeightedFundingRate is the open-interest weighted funding rate of a symbol.
type OIWeightedFundingRate struct {
	Symbol                string          `json:"symbol"`
	FundingRateUpdatedAt  string          `json:"funding_rate_updated_at"`
	OpenInterestUpdatedAt string          `json:"open_interest_updated_at"`
	OIWeightedFundingRate decimal.Decimal `json:"oi_weighted_funding_rate"`
}

// FundingRateTrend summarises the recent direction of a symbol's funding.
type FundingRateTrend struct {
	Symbol   string  `json:"symbol"`
	Platform string  `json:"platform"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	ZScore   float64 `json:"z_score"`
	Trend    string  `json:"trend" jsonschema:"enum=flat,enum=upward,enum=downward"`
	Latest   float64 `json:"latest"`
}
