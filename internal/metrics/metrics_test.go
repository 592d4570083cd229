package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	ObserveHTTP("GET", "/api/v1/loans", 200, 15*time.Millisecond)
	ObserveJob("loan_status_sweep", time.Second, nil)
	ObserveJob("loan_status_sweep", time.Second, errors.New("boom"))
	IncStatusTransition("loan", "non_performing")
	IncRecording("repayment", nil)
	IncExport("pdf", nil)
	SetBalanceSheet(map[string]decimal.Decimal{"equity": decimal.RequireFromString("31298.63")})

	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/loans", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("loan_status_sweep", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("loan_status_sweep", resultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(statusTransitions.WithLabelValues("loan", "non_performing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ledgerRecordings.WithLabelValues("repayment", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(exportTotal.WithLabelValues("pdf", resultSuccess)))
	assert.InDelta(t, 31298.63, testutil.ToFloat64(balanceSheet.WithLabelValues("equity")), 0.001)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
