package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMetrics_RecordSend(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.Register())

	m.RecordSend("http", "buffered", 120, time.Millisecond)
	m.RecordSend("http", "buffered", 80, time.Millisecond)
	m.RecordSend("http", "dispatched", 100, time.Millisecond)
	m.RecordSend("console", "sent", 50, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("http", "buffered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("http", "dispatched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("console", "sent")))

	pm := m.GetPathwayMetrics("http")
	require.NotNil(t, pm)
	assert.Equal(t, uint64(2), pm.Buffered)
	assert.Equal(t, uint64(1), pm.Dispatched)
	assert.Equal(t, uint64(300), pm.BytesSent)
	assert.False(t, pm.LastUpdatedAt.IsZero())
}

func TestSendMetrics_RecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.Register())

	m.RecordError("sqs", "size_limit", errors.New("too big"), time.Millisecond)
	m.RecordError("sqs", "delivery", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("sqs", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("sqs", "size_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("sqs", "delivery")))

	pm := m.GetPathwayMetrics("sqs")
	require.NotNil(t, pm)
	assert.Equal(t, uint64(2), pm.Failed)
	assert.Equal(t, "boom", pm.LastError)
}

func TestSendMetrics_Snapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSend("log", "sent", 10, 0)
	m.RecordSend("http", "dispatched", 10, 0)
	m.RecordError("http", "delivery", nil, 0)

	snapshot := m.GetSnapshot()
	assert.Equal(t, uint64(2), snapshot.TotalSent)
	assert.Equal(t, uint64(1), snapshot.TotalFailed)
	assert.Len(t, snapshot.Pathways, 2)

	snapshot.Pathways["log"].Sent = 99
	assert.Equal(t, uint64(1), m.GetPathwayMetrics("log").Sent, "snapshot must be a copy")
}

func TestSendMetrics_SetBuffered(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetBuffered("http", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.bufferedGauge.WithLabelValues("http")))
}

func TestSendMetrics_RegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.Register())
	require.NoError(t, m.Register())

	other := New(reg)
	assert.NoError(t, other.Register(), "already registered collectors are tolerated")
}

func TestSendMetrics_SharedRegistryAdoptsCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	require.NoError(t, first.Register())
	second := New(reg)
	require.NoError(t, second.Register())

	second.RecordSend("http", "sent", 64, time.Millisecond)
	second.RecordSend("http", "sent", 64, time.Millisecond)
	second.RecordError("http", "delivery", errors.New("boom"), time.Millisecond)
	second.SetBuffered("http", 3)

	assert.Same(t, first.sendsTotal, second.sendsTotal)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.sendsTotal.WithLabelValues("http", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.errorsTotal.WithLabelValues("http", "delivery")))
	assert.Equal(t, 3.0, testutil.ToFloat64(first.bufferedGauge.WithLabelValues("http")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var scraped float64
	for _, mf := range families {
		if mf.GetName() != "mozdef_pathway_sends_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			scraped += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 3.0, scraped, "every send of the second instance is visible to the registry")
}

func TestSendMetrics_Reset(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordSend("log", "sent", 10, 0)
	m.Reset()

	assert.Nil(t, m.GetPathwayMetrics("log"))
	assert.Empty(t, m.GetSnapshot().Pathways)
}

func TestNewDefaultsRegisterer(t *testing.T) {
	m := New(nil)
	assert.Equal(t, prometheus.DefaultRegisterer, m.registerer)
}
