package instrumentation

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordToolCall("data_get_liquidation_totals", "success", 12*time.Millisecond)
	m.RecordToolCall("data_get_liquidation_totals", "success", 8*time.Millisecond)
	m.RecordUpstream("data", "/v1/liquidations/totals", "2xx", 5*time.Millisecond)
	m.RecordError("upstream", "network")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("data_get_liquidation_totals", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("data", "/v1/liquidations/totals", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("upstream", "network")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordToolCall("x", "error", time.Second)
		m.RecordUpstream("sor", "/v1/order_metadata", "5xx", time.Second)
		m.RecordError("mcp", "internal")
	})
}
