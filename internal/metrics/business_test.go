package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine matches a Prometheus sample, tolerating the OTel scope
// labels the exporter adds.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestBusinessMetrics_RecordsPublishAndDelivery(t *testing.T) {
	provider, err := NewProvider("newsletter_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "newsletter_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "newsletter", "publish", "success")
	bm.RecordOperation(ctx, "newsletter", "publish", "success")
	bm.RecordOperation(ctx, "newsletter", "publish", "error")
	bm.RecordOperation(ctx, "delivery", "deliver", "delivered")
	bm.RecordOperation(ctx, "delivery", "deliver", "retry")
	bm.RecordOperation(ctx, "delivery", "deliver", "abandoned")
	bm.RecordDuration(ctx, "newsletter", "publish", 40*time.Millisecond, "success")
	bm.RecordDuration(ctx, "newsletter", "publish", 60*time.Millisecond, "success")

	output := scrape(t, provider)

	assertMetricLine(t, output, `newsletter_test_operations_total`,
		`domain="newsletter".*operation="publish".*status="success"`, `2`)
	assertMetricLine(t, output, `newsletter_test_operations_total`,
		`domain="newsletter".*operation="publish".*status="error"`, `1`)
	assertMetricLine(t, output, `newsletter_test_operations_total`,
		`domain="delivery".*operation="deliver".*status="abandoned"`, `1`)
	assertMetricLine(t, output, `newsletter_test_operation_duration_seconds_count`,
		`domain="newsletter".*operation="publish".*status="success"`, `2`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)

	assert.NotPanics(t, func() {
		noOp.RecordOperation(context.Background(), "delivery", "deliver", "retry")
		noOp.RecordDuration(context.Background(), "delivery", "deliver", time.Second, "retry")
	})
}
