package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRefreshSuccess(t *testing.T) {
	before := testutil.ToFloat64(RefreshTotal.WithLabelValues(OutcomeSuccess, ""))
	processedBefore := testutil.ToFloat64(CountriesProcessed)
	skippedBefore := testutil.ToFloat64(CountriesSkipped)

	RecordRefreshSuccess(250, 2, 1.5)

	assert.Equal(t, before+1, testutil.ToFloat64(RefreshTotal.WithLabelValues(OutcomeSuccess, "")))
	assert.Equal(t, processedBefore+250, testutil.ToFloat64(CountriesProcessed))
	assert.Equal(t, skippedBefore+2, testutil.ToFloat64(CountriesSkipped))
}

func TestRecordRefreshFailure(t *testing.T) {
	before := testutil.ToFloat64(RefreshTotal.WithLabelValues(OutcomeFailure, "STORAGE_ERROR"))

	RecordRefreshFailure("STORAGE_ERROR", 0.2)

	assert.Equal(t, before+1, testutil.ToFloat64(RefreshTotal.WithLabelValues(OutcomeFailure, "STORAGE_ERROR")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/status", "200"))

	RecordHTTPRequest("GET", "/status", "200")
	RecordHTTPRequest("GET", "/status", "200")

	assert.Equal(t, before+2, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/status", "200")))
}

func TestRecordPublishError(t *testing.T) {
	before := testutil.ToFloat64(PublishErrorsTotal)

	RecordPublishError()

	assert.Equal(t, before+1, testutil.ToFloat64(PublishErrorsTotal))
}
