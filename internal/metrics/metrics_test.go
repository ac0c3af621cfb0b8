package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePackage(t *testing.T) {
	r := New()

	r.ObservePackage(time.Millisecond, nil)
	r.ObservePackage(time.Millisecond, nil)
	r.ObservePackage(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.packagesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.packagesTotal.WithLabelValues("error")))
}

func TestObserveBatch(t *testing.T) {
	r := New()

	r.ObserveBatch(4, 3)
	r.ObserveBatch(2, 1)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.shippedTotal))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObservePackage(time.Second, nil)
		r.ObserveBatch(1, 1)
		r.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodPost, "/api/pack", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `packer_http_requests_total{method="POST",path="/api/pack",status_code="200"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
