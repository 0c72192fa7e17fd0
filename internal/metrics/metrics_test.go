package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.BlocksProcessed.Inc()
	m.DecodeFailures.WithLabelValues("Swap", "payload_too_short").Add(2)

	// a second instance must not collide on registration
	New().BlocksProcessed.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "poolscope_blocks_processed_total 1"))
	assert.True(t, strings.Contains(body, `poolscope_decode_failures_total{event="Swap",reason="payload_too_short"} 2`))
}
