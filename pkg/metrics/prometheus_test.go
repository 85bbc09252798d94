package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordSignalIngested("tracker")
	r.RecordSignalIngested("tracker")
	r.RecordSignalIngested("")
	r.RecordError("store")
	r.RecordStoreSize("memory", 42)
	r.RecordLatency("store_append", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalsIngested.WithLabelValues("tracker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalsIngested.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("store")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.storeSize.WithLabelValues("memory")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestRecordersUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegistry(prometheus.NewRegistry())
		NewWithRegistry(prometheus.NewRegistry())
	})
}
