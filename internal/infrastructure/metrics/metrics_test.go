package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/metrics"
)

func TestRegister_Once(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, metrics.Register(reg))
	require.NoError(t, metrics.Register(reg))

	metrics.InvalidRecords.WithLabelValues("metrics-test").Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.InvalidRecords.WithLabelValues("metrics-test")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		101: "1xx",
		200: "2xx",
		304: "3xx",
		404: "4xx",
		422: "4xx",
		500: "5xx",
		0:   "5xx",
	}
	for code, want := range tests {
		assert.Equal(t, want, metrics.StatusClass(code), "code %d", code)
	}
}
