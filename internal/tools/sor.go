package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
	"github.com/ranger-finance/ranger-agent-kit/internal/models"
	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
	"github.com/ranger-finance/ranger-agent-kit/internal/upstream"
)

// SOR endpoints.
const (
	EndpointOrderMetadata    = "/v1/order_metadata"
	EndpointIncreasePosition = "/v1/increase_position"
	EndpointDecreasePosition = "/v1/decrease_position"
	EndpointClosePosition    = "/v1/close_position"
	EndpointWithdrawBalance  = "/v1/withdraw_balance"
)

const signNote = " Returns a base64 encoded transaction message that needs to be signed and submitted by the user/client."

var (
	quoteResponseSchema    = schema.MustCompile[models.QuoteResponse]()
	envelopeSchema         = schema.MustCompile[models.SorAPIResponse]()
	withdrawResponseSchema = schema.MustCompile[models.WithdrawBalanceResponse]()
)

// TradingClient calls the SOR API.
type TradingClient interface {
	CallTradingAPI(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error)
}

type sorTools struct {
	client TradingClient
	logger *slog.Logger
}

// NewSORGroup builds the trading tools. None of them sign or submit the
// transactions they return.
func NewSORGroup(client TradingClient, logger *slog.Logger) (*mcp.Group, error) {
	s := &sorTools{
		client: client,
		logger: logger.With("component", "sor_tools"),
	}

	g := mcp.NewGroup()
	err := register(g,
		entry(mcp.NewTool("get_trade_quote",
			"Get a quote for a potential trade, including price, liquidity, and routing. Does NOT execute the trade. Use the increase, decrease or close position tools to execute.",
			s.getTradeQuote)),
		entry(mcp.NewTool("increase_position",
			"Open a new position or increase the size of an existing one."+signNote,
			s.increasePosition)),
		entry(mcp.NewTool("decrease_position",
			"Decrease the size of an existing position using a specific venue."+signNote,
			s.decreasePosition)),
		entry(mcp.NewTool("close_position",
			"Close an existing position completely, on a specific venue or on all of them."+signNote,
			s.closePosition)),
		entry(mcp.NewTool("withdraw_balance_drift",
			"Withdraw available balance from a Drift sub-account."+signNote,
			s.withdrawBalance)),
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *sorTools) getTradeQuote(ctx context.Context, p models.QuoteParams) (models.QuoteResponse, error) {
	if p.CollateralDenomination == "" {
		p.CollateralDenomination = models.DefaultCollateralDenomination
	}

	s.logger.InfoContext(ctx, "quote_requested",
		"symbol", p.Symbol,
		"side", p.Side,
		"size", p.Size,
		"adjustment_type", p.AdjustmentType,
	)

	raw, err := s.client.CallTradingAPI(ctx, EndpointOrderMetadata, http.MethodPost, p)
	if err != nil {
		return models.QuoteResponse{}, err
	}
	return upstream.Decode[models.QuoteResponse](raw, quoteResponseSchema, upstream.APITrading, EndpointOrderMetadata)
}

func (s *sorTools) increasePosition(ctx context.Context, p models.IncreasePositionParams) (string, error) {
	if p.CollateralDenomination == "" {
		p.CollateralDenomination = models.DefaultCollateralDenomination
	}
	if p.AdjustmentType == "" {
		p.AdjustmentType = models.AdjustmentIncrease
	}

	s.logger.InfoContext(ctx, "increase_position_requested",
		"symbol", p.Symbol,
		"side", p.Side,
		"size", p.Size,
		"collateral", p.Collateral,
	)
	return s.transaction(ctx, EndpointIncreasePosition, p)
}

func (s *sorTools) decreasePosition(ctx context.Context, p models.DecreasePositionParams) (string, error) {
	if p.CollateralDenomination == "" {
		p.CollateralDenomination = models.DefaultCollateralDenomination
	}

	s.logger.InfoContext(ctx, "decrease_position_requested",
		"symbol", p.Symbol,
		"side", p.Side,
		"size", p.Size,
		"adjustment_type", p.AdjustmentType,
	)
	return s.transaction(ctx, EndpointDecreasePosition, p)
}

func (s *sorTools) closePosition(ctx context.Context, p models.ClosePositionParams) (string, error) {
	s.logger.InfoContext(ctx, "close_position_requested",
		"symbol", p.Symbol,
		"side", p.Side,
		"adjustment_type", p.AdjustmentType,
	)
	return s.transaction(ctx, EndpointClosePosition, p)
}

// transaction posts a mutating request and returns the encoded transaction
// of the envelope without looking inside it.
func (s *sorTools) transaction(ctx context.Context, endpoint string, body any) (string, error) {
	raw, err := s.client.CallTradingAPI(ctx, endpoint, http.MethodPost, body)
	if err != nil {
		return "", err
	}

	env, err := upstream.Decode[models.SorAPIResponse](raw, envelopeSchema, upstream.APITrading, endpoint)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "transaction_received",
		"endpoint", endpoint,
		"average_price", env.AveragePrice,
		"venues", len(env.Meta.Venues),
	)
	return env.Message, nil
}

func (s *sorTools) withdrawBalance(ctx context.Context, p models.WithdrawBalanceParams) (string, error) {
	if p.SubAccountID == nil {
		var zero int64
		p.SubAccountID = &zero
	}
	if p.AdjustmentType == "" {
		p.AdjustmentType = models.AdjustmentWithdrawBalanceDrift
	}

	s.logger.InfoContext(ctx, "withdraw_balance_requested",
		"symbol", p.Symbol,
		"amount", p.Amount,
		"sub_account_id", *p.SubAccountID,
	)

	raw, err := s.client.CallTradingAPI(ctx, EndpointWithdrawBalance, http.MethodPost, p)
	if err != nil {
		return "", err
	}

	resp, err := upstream.Decode[models.WithdrawBalanceResponse](raw, withdrawResponseSchema, upstream.APITrading, EndpointWithdrawBalance)
	if err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "", &upstream.ShapeError{Endpoint: EndpointWithdrawBalance, Reason: "response has no transaction message"}
	}

	s.logger.InfoContext(ctx, "withdraw_transaction_received")
	return resp.Message, nil
}
