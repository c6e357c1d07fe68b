package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EslamHany2002/Feedback-Report/internal/metrics"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	sent    []sent
	flushed int
	closed  bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Gauge(name string, value float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"gauge", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error { f.flushed++; return nil }
func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestBackend_Forwards(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RowsTotal, 2.9, metrics.Labels{"kind": "loaded", "job": "amit"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.5, metrics.Labels{"step": "load"})
	b.SetGauge(metrics.ReportValue, 4, nil)
	require.NoError(t, b.Flush())
	require.NoError(t, b.Close())

	require.Len(t, fc.sent, 3)
	assert.Equal(t, sent{"count", metrics.RowsTotal, 2, []string{"job:amit", "kind:loaded"}}, fc.sent[0])
	assert.Equal(t, sent{"histogram", metrics.StepDurationSeconds, 0.5, []string{"step:load"}}, fc.sent[1])
	assert.Equal(t, sent{"gauge", metrics.ReportValue, 4, nil}, fc.sent[2])
	assert.Equal(t, 1, fc.flushed)
	assert.True(t, fc.closed)
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(Config{})
	require.Error(t, err)

	// UDP clients do not dial eagerly, so a closed local port is fine.
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "amit.", GlobalTags: []string{"env:test"}})
	require.NoError(t, err)
	require.NoError(t, b.Close())
}
