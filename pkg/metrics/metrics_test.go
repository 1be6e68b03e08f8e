package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(priceUpserts.WithLabelValues(ResultError))
	ObservePriceUpsert(errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(priceUpserts.WithLabelValues(ResultError)))

	before = testutil.ToFloat64(dossierTotal.WithLabelValues("premium", ResultSuccess))
	ObserveDossier("premium", nil, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(dossierTotal.WithLabelValues("premium", ResultSuccess)))

	before = testutil.ToFloat64(imageryTotal.WithLabelValues("unknown"))
	IncImagery("")
	assert.Equal(t, before+1, testutil.ToFloat64(imageryTotal.WithLabelValues("unknown")))

	before = testutil.ToFloat64(renderTotal.WithLabelValues("pdf", ResultSuccess))
	ObserveRender("pdf", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(renderTotal.WithLabelValues("pdf", ResultSuccess)))
}

func TestHandler(t *testing.T) {
	Init()
	Init()
	IncStatisticsFallback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "powerroof_price_statistics_fallback_total")
}
