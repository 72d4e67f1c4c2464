package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranger-finance/ranger-agent-kit/internal/models"
	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
)

func TestDecode_Quote(t *testing.T) {
	raw := json.RawMessage(`{
		"venues": [
			{"venue_name":"Jupiter","collateral":5,"size":0.05,"quote":{"base":150,"total":151,"fee_breakdown":{"base_fee":0.1}},"order_available_liquidity":1000,"venue_available_liquidity":5000},
			{"venue_name":"Drift","collateral":5,"size":0.05,"quote":{"base":150.4,"total":151.2,"fee_breakdown":{"base_fee_per_unit":0.2}},"order_available_liquidity":900,"venue_available_liquidity":4000}
		],
		"total_collateral": 10,
		"total_size": 0.1,
		"average_price": 150.2
	}`)

	quote, err := Decode[models.QuoteResponse](raw, schema.MustCompile[models.QuoteResponse](), APITrading, "/v1/order_metadata")
	require.NoError(t, err)
	require.Len(t, quote.Venues, 2)
	assert.Equal(t, 150.2, quote.AveragePrice)
	require.NotNil(t, quote.Venues[0].Quote.FeeBreakdown.BaseFee)
	assert.Nil(t, quote.Venues[0].Quote.FeeBreakdown.BaseFeePerUnit)
	require.NotNil(t, quote.Venues[1].Quote.FeeBreakdown.BaseFeePerUnit)
}

func TestDecode_MissingFieldIsShapeError(t *testing.T) {
	v := schema.MustCompile[models.WithdrawBalanceResponse]()

	for _, body := range []string{`{}`, `{"message":""}`, `{"tx":"abc"}`} {
		_, err := Decode[models.WithdrawBalanceResponse](json.RawMessage(body), v, APITrading, "/v1/withdraw_balance")
		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr, body)
		assert.Equal(t, "/v1/withdraw_balance", shapeErr.Endpoint)
		assert.Contains(t, err.Error(), "message")
	}
}

func TestDecode_MalformedIsProtocolError(t *testing.T) {
	_, err := Decode[models.LiquidationTotals](json.RawMessage(`{"last_1h":`), nil, APIData, "/v1/liquidations/totals")
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, APIData, protoErr.API)
	assert.Contains(t, err.Error(), "Ranger Data API")

	_, err = Decode[models.QuoteResponse](json.RawMessage(`not json`), nil, APITrading, "/v1/order_metadata")
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, APITrading, protoErr.API)
	assert.NotContains(t, err.Error(), "Data API")
}

func TestDecode_WrongTypeIsShapeError(t *testing.T) {
	_, err := Decode[[]models.Liquidation](json.RawMessage(`{"not":"a list"}`), schema.MustCompileList[models.Liquidation](), APIData, "/v1/liquidations/latest")
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(nil))
	assert.Equal(t, "4xx", StatusClass(&HTTPError{Status: 404}))
	assert.Equal(t, "network", StatusClass(&NetworkError{}))
	assert.Equal(t, "shape", StatusClass(&ShapeError{}))
	assert.Equal(t, "protocol", StatusClass(&ProtocolError{}))
}
