package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colsplit/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	require.NotNil(t, m.GetCounter())
	return m.GetCounter().GetValue()
}

func summaryCount(t *testing.T, v *prometheus.SummaryVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	require.True(t, ok)
	require.NoError(t, metric.Write(m))
	return m.GetSummary().GetSampleCount()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("job", "")
	require.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "colsplit", b.jobName)

	b, err = NewBackend("nightly", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "nightly", b.jobName)
}

// TestRecorderThroughBackend drives the backend the way the pipeline does.
func TestRecorderThroughBackend(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://pushgateway:9091")
	require.NoError(t, err)
	r := metrics.NewRecorder("job", b)

	r.File(metrics.StatusCompleted, "", 0)
	r.File(metrics.StatusCompleted, "", 0)
	r.File(metrics.StatusFailed, "io", 0)
	r.File(metrics.StatusSkipped, "", 0)
	r.Rows(42)
	r.Chunks(3)
	b.IncCounter("unknown_metric", 1, nil)

	assert.Equal(t, 2.0, counterValue(t, b.files.WithLabelValues("completed", "")))
	assert.Equal(t, 1.0, counterValue(t, b.files.WithLabelValues("failed", "io")))
	assert.Equal(t, 1.0, counterValue(t, b.files.WithLabelValues("skipped", "")))
	assert.Equal(t, 42.0, counterValue(t, b.rows))
	assert.Equal(t, 3.0, counterValue(t, b.chunks))
	assert.Equal(t, uint64(2), summaryCount(t, b.fileDuration, "completed"))
}

// TestFlush verifies that Flush pushes the registry to the gateway.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method, path string
		body         int
	}
	reqCh := make(chan pushed, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{r.Method, r.URL.Path, len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("colsplit-job", server.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RowsTotal, 5, nil)
	b.ObserveHistogram(metrics.RunDuration, 1.25, nil)

	require.NoError(t, b.Flush())

	select {
	case got := <-reqCh:
		assert.Equal(t, http.MethodPut, got.method)
		assert.Contains(t, got.path, "/metrics/job/colsplit-job")
		assert.Positive(t, got.body)
	default:
		t.Fatal("Flush did not reach the Pushgateway")
	}
}

func BenchmarkIncCounterFiles(b *testing.B) {
	backend, err := NewBackend("colsplit", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	lbls := metrics.Labels{"status": "completed"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.FilesTotal, 1, lbls)
	}
}
