package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Resolutions.WithLabelValues("found_valid"))

	Resolutions.WithLabelValues("found_valid").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(Resolutions.WithLabelValues("found_valid")))
}

func TestHandler(t *testing.T) {
	ShortenedURLs.WithLabelValues(KindCustom).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ttl_shortener_shortened_urls_total{kind="custom"}`)
}
