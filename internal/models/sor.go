package models

// Side is the direction of a perps position.
type Side string

const (
	SideLong  Side = "Long"
	SideShort Side = "Short"
)

// AdjustmentType is the kind of position mutation requested from the SOR.
// Each trading operation accepts its own closed subset.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "Increase"

	AdjustmentDecreaseFlash   AdjustmentType = "DecreaseFlash"
	AdjustmentDecreaseJupiter AdjustmentType = "DecreaseJupiter"
	AdjustmentDecreaseDrift   AdjustmentType = "DecreaseDrift"
	AdjustmentDecreaseAdrena  AdjustmentType = "DecreaseAdrena"

	AdjustmentCloseFlash   AdjustmentType = "CloseFlash"
	AdjustmentCloseJupiter AdjustmentType = "CloseJupiter"
	AdjustmentCloseDrift   AdjustmentType = "CloseDrift"
	AdjustmentCloseAdrena  AdjustmentType = "CloseAdrena"
	AdjustmentCloseAll     AdjustmentType = "CloseAll"

	AdjustmentWithdrawBalanceDrift AdjustmentType = "WithdrawBalanceDrift"
)

// Venue is a perps venue the SOR can route to.
type Venue string

const (
	VenueJupiter Venue = "Jupiter"
	VenueFlash   Venue = "Flash"
	VenueDrift   Venue = "Drift"
)

// Venues lists every routable venue.
var Venues = []Venue{VenueJupiter, VenueFlash, VenueDrift}

// DefaultCollateralDenomination is the only collateral the SOR accepts today.
const DefaultCollateralDenomination = "USDC"

// QuoteParams asks the SOR to price and route a prospective trade.
type QuoteParams struct {
	FeePayer                 string         `json:"fee_payer" jsonschema:"minLength=1" jsonschema_description:"The public key of the fee payer account"`
	Symbol                   string         `json:"symbol" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	Side                     Side           `json:"side" jsonschema:"enum=Long,enum=Short"`
	Size                     float64        `json:"size" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The size of the position in base asset"`
	Collateral               float64        `json:"collateral" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The amount of collateral to use (in USDC)"`
	SizeDenomination         string         `json:"size_denomination" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	CollateralDenomination   string         `json:"collateral_denomination,omitempty" jsonschema:"enum=USDC,default=USDC"`
	AdjustmentType           AdjustmentType `json:"adjustment_type" jsonschema:"enum=Increase,enum=DecreaseFlash,enum=DecreaseJupiter,enum=DecreaseDrift,enum=DecreaseAdrena,enum=CloseFlash,enum=CloseJupiter,enum=CloseDrift,enum=CloseAdrena,enum=CloseAll"`
	TargetVenues             []Venue        `json:"target_venues,omitempty" jsonschema_description:"Optional list of target venues"`
	SlippageBps              *int64         `json:"slippage_bps,omitempty" jsonschema:"minimum=0" jsonschema_description:"Slippage tolerance in basis points (e.g. 100 for 1%)"`
	PriorityFeeMicroLamports *int64         `json:"priority_fee_micro_lamports,omitempty" jsonschema:"minimum=0" jsonschema_description:"Priority fee in micro lamports"`
}

// IncreasePositionParams opens a position or adds to an existing one.
type IncreasePositionParams struct {
	FeePayer                 string         `json:"fee_payer" jsonschema:"minLength=1" jsonschema_description:"The public key of the fee payer account"`
	Symbol                   string         `json:"symbol" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	Side                     Side           `json:"side" jsonschema:"enum=Long,enum=Short"`
	Size                     float64        `json:"size" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The size of the position in base asset"`
	Collateral               float64        `json:"collateral" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The amount of collateral to use (in USDC)"`
	SizeDenomination         string         `json:"size_denomination" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	CollateralDenomination   string         `json:"collateral_denomination,omitempty" jsonschema:"enum=USDC,default=USDC"`
	AdjustmentType           AdjustmentType `json:"adjustment_type,omitempty" jsonschema:"enum=Increase,default=Increase"`
	TargetVenues             []Venue        `json:"target_venues,omitempty" jsonschema_description:"Optional list of target venues"`
	SlippageBps              *int64         `json:"slippage_bps,omitempty" jsonschema:"minimum=0" jsonschema_description:"Slippage tolerance in basis points (e.g. 100 for 1%)"`
	PriorityFeeMicroLamports *int64         `json:"priority_fee_micro_lamports,omitempty" jsonschema:"minimum=0" jsonschema_description:"Priority fee in micro lamports"`
	ExpectedPrice            *float64       `json:"expected_price,omitempty" jsonschema_description:"Optional expected price for the trade in USD"`
}

// DecreasePositionParams reduces an existing position through one venue.
// Collateral may be zero: the size shrinks and no collateral is withdrawn.
type DecreasePositionParams struct {
	FeePayer                 string         `json:"fee_payer" jsonschema:"minLength=1" jsonschema_description:"The public key of the fee payer account"`
	Symbol                   string         `json:"symbol" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	Side                     Side           `json:"side" jsonschema:"enum=Long,enum=Short"`
	Size                     float64        `json:"size" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The size to decrease by in base asset"`
	Collateral               float64        `json:"collateral" jsonschema:"minimum=0" jsonschema_description:"The amount of collateral to withdraw (in USDC)"`
	SizeDenomination         string         `json:"size_denomination" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	CollateralDenomination   string         `json:"collateral_denomination,omitempty" jsonschema:"enum=USDC,default=USDC"`
	AdjustmentType           AdjustmentType `json:"adjustment_type" jsonschema:"enum=DecreaseFlash,enum=DecreaseJupiter,enum=DecreaseDrift,enum=DecreaseAdrena"`
	TargetVenues             []Venue        `json:"target_venues,omitempty" jsonschema_description:"Optional list of target venues"`
	SlippageBps              *int64         `json:"slippage_bps,omitempty" jsonschema:"minimum=0" jsonschema_description:"Slippage tolerance in basis points (e.g. 100 for 1%)"`
	PriorityFeeMicroLamports *int64         `json:"priority_fee_micro_lamports,omitempty" jsonschema:"minimum=0" jsonschema_description:"Priority fee in micro lamports"`
	ExpectedPrice            *float64       `json:"expected_price,omitempty" jsonschema_description:"Optional expected price for the trade in USD"`
}

// ClosePositionParams closes a position completely on one venue or on all of them.
type ClosePositionParams struct {
	FeePayer                 string         `json:"fee_payer" jsonschema:"minLength=1" jsonschema_description:"The public key of the fee payer account"`
	Symbol                   string         `json:"symbol" jsonschema:"enum=SOL,enum=BTC,enum=ETH"`
	Side                     Side           `json:"side" jsonschema:"enum=Long,enum=Short"`
	AdjustmentType           AdjustmentType `json:"adjustment_type" jsonschema:"enum=CloseFlash,enum=CloseJupiter,enum=CloseDrift,enum=CloseAdrena,enum=CloseAll"`
	SlippageBps              *int64         `json:"slippage_bps,omitempty" jsonschema:"minimum=0" jsonschema_description:"Slippage tolerance in basis points (e.g. 100 for 1%)"`
	PriorityFeeMicroLamports *int64         `json:"priority_fee_micro_lamports,omitempty" jsonschema:"minimum=0" jsonschema_description:"Priority fee in micro lamports"`
	ExpectedPrice            *float64       `json:"expected_price,omitempty" jsonschema_description:"Optional expected price for the trade in USD"`
}

// WithdrawBalanceParams withdraws the free balance of a Drift sub-account.
type WithdrawBalanceParams struct {
	FeePayer       string         `json:"fee_payer" jsonschema:"minLength=1" jsonschema_description:"The public key of the fee payer account"`
	Symbol         string         `json:"symbol" jsonschema:"minLength=1" jsonschema_description:"The token symbol to withdraw (e.g. USDC)"`
	Amount         float64        `json:"amount" jsonschema:"exclusiveMinimum=0" jsonschema_description:"The amount to withdraw"`
	SubAccountID   *int64         `json:"sub_account_id,omitempty" jsonschema:"minimum=0,default=0" jsonschema_description:"The Drift sub-account to withdraw from (defaults to 0)"`
	AdjustmentType AdjustmentType `json:"adjustment_type,omitempty" jsonschema:"enum=WithdrawBalanceDrift,default=WithdrawBalanceDrift"`
}

// FeeBreakdown itemises venue fees. Venues disagree on the base fee key, so
// both spellings are kept.
type FeeBreakdown struct {
	BaseFee        *float64 `json:"base_fee,omitempty"`
	BaseFeePerUnit *float64 `json:"base_fee_per_unit,omitempty"`
	SpreadFee      *float64 `json:"spread_fee,omitempty"`
	VolatilityFee  *float64 `json:"volatility_fee,omitempty"`
	MarginFee      *float64 `json:"margin_fee,omitempty"`
	CloseFee       *float64 `json:"close_fee,omitempty"`
	OpenFee        *float64 `json:"open_fee,omitempty"`
	OtherFees      *float64 `json:"other_fees,omitempty"`
}

// QuoteDetails is the venue-reported price detail of an allocation.
type QuoteDetails struct {
	Base            float64      `json:"base"`
	TotalFeePerUnit *float64     `json:"total_fee_per_unit,omitempty"`
	Fee             *float64     `json:"fee,omitempty"`
	Total           float64      `json:"total"`
	FeeBreakdown    FeeBreakdown `json:"fee_breakdown"`
}

// VenueAllocation is the share of a routed order filled on one venue.
type VenueAllocation struct {
	VenueName               string       `json:"venue_name"`
	Collateral              float64      `json:"collateral"`
	Size                    float64      `json:"size"`
	Quote                   QuoteDetails `json:"quote"`
	Price                   *float64     `json:"price,omitempty"`
	OrderAvailableLiquidity float64      `json:"order_available_liquidity"`
	VenueAvailableLiquidity float64      `json:"venue_available_liquidity"`
}

// QuoteResponse is the SOR routing plan. Totals are computed upstream from
// the venue allocations.
type QuoteResponse struct {
	Venues          []VenueAllocation `json:"venues"`
	TotalCollateral float64           `json:"total_collateral"`
	TotalSize       float64           `json:"total_size"`
	AveragePrice    float64           `json:"average_price"`
}

// SorAPIResponse is the transaction envelope returned by mutating SOR calls.
// Message is the unsigned, base64 encoded transaction; it is forwarded as is.
type SorAPIResponse struct {
	Message      string        `json:"message" jsonschema:"minLength=1"`
	Meta         QuoteResponse `json:"meta"`
	AveragePrice *float64      `json:"average_price,omitempty"`
	Size         *float64      `json:"size,omitempty"`
}

// WithdrawBalanceResponse is the flat response of /v1/withdraw_balance.
type WithdrawBalanceResponse struct {
	Message string `json:"message" jsonschema:"minLength=1"`
}
