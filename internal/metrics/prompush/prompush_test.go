package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EslamHany2002/Feedback-Report/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("amit", "")
	require.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "feedback_report", b.jobName)

	b, err = NewBackend("amit", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "amit", b.jobName)
}

func TestBackend_Collectors(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("amit", "http://pushgateway:9091")
	require.NoError(t, err)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load", "status": "success"})
	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"step": "load", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 120, metrics.Labels{"kind": "loaded"})
	b.IncCounter("unknown_metric", 5, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "load", "status": "success"})
	b.SetGauge(metrics.ReportValue, 7, metrics.Labels{"metric": "poor_feedback"})
	b.SetGauge(metrics.ReportValue, 3, metrics.Labels{"metric": "poor_feedback"})

	assert.Equal(t, 3.0, testutil.ToFloat64(b.stepCounter.WithLabelValues("load", "success")))
	assert.Equal(t, 120.0, testutil.ToFloat64(b.rowCounter.WithLabelValues("loaded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(b.reportGauge.WithLabelValues("poor_feedback")))
	assert.Equal(t, 1, testutil.CollectAndCount(b.stepDuration))
}

/*
TestBackend_Flush runs a fake Pushgateway and checks that Flush PUTs the
registry under /metrics/job/<job> and surfaces gateway errors.
*/
func TestBackend_Flush(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("amit", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "loaded"})
	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/amit", path)
	assert.NotEmpty(t, body)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	b, err = NewBackend("amit", failing.URL)
	require.NoError(t, err)
	assert.ErrorContains(t, b.Flush(), "prompush: push")
}
