// Package metrics records per-pathway delivery statistics as Prometheus
// collectors and keeps an in-process snapshot for callers without a scraper.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SendMetrics tracks delivery outcomes per pathway.
type SendMetrics struct {
	mu sync.RWMutex

	pathways map[string]*PathwayMetrics

	sendsTotal    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	bodyBytes     *prometheus.HistogramVec
	sendDuration  *prometheus.HistogramVec
	bufferedGauge *prometheus.GaugeVec

	registerer prometheus.Registerer
	registered bool
}

// PathwayMetrics holds counts for a single pathway.
type PathwayMetrics struct {
	Sent          uint64    `json:"sent"`
	Buffered      uint64    `json:"buffered"`
	Dispatched    uint64    `json:"dispatched"`
	Failed        uint64    `json:"failed"`
	BytesSent     uint64    `json:"bytes_sent"`
	LastError     string    `json:"last_error,omitempty"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// Snapshot is a point-in-time view of all pathways.
type Snapshot struct {
	TotalSent   uint64                     `json:"total_sent"`
	TotalFailed uint64                     `json:"total_failed"`
	Pathways    map[string]*PathwayMetrics `json:"pathways"`
	CollectedAt time.Time                  `json:"collected_at"`
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mozdef",
			Subsystem: "pathway",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mozdef",
			Subsystem: "pathway",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newHistogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mozdef",
			Subsystem: "pathway",
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// New creates a metrics collector. A nil registerer means the Prometheus
// default registerer.
func New(registerer prometheus.Registerer) *SendMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SendMetrics{
		pathways:      make(map[string]*PathwayMetrics),
		registerer:    registerer,
		sendsTotal:    newCounterVec("sends_total", "Total number of messages handed to a pathway, by outcome status", []string{"pathway", "status"}),
		errorsTotal:   newCounterVec("errors_total", "Total number of failed sends, by error kind", []string{"pathway", "kind"}),
		bodyBytes:     newHistogramVec("message_bytes", "Size of serialized message bodies", prometheus.ExponentialBuckets(128, 4, 8), []string{"pathway"}),
		sendDuration:  newHistogramVec("send_duration_seconds", "Time spent in a pathway send call", prometheus.DefBuckets, []string{"pathway"}),
		bufferedGauge: newGaugeVec("buffered_messages", "Messages currently held in a pathway buffer", []string{"pathway"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
// When the registerer already holds collectors of the same name, those are
// adopted so every SendMetrics on one registry feeds the same series.
func (m *SendMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	if err := registerCounterVec(m.registerer, &m.sendsTotal); err != nil {
		return err
	}
	if err := registerCounterVec(m.registerer, &m.errorsTotal); err != nil {
		return err
	}
	if err := registerHistogramVec(m.registerer, &m.bodyBytes); err != nil {
		return err
	}
	if err := registerHistogramVec(m.registerer, &m.sendDuration); err != nil {
		return err
	}
	if err := registerGaugeVec(m.registerer, &m.bufferedGauge); err != nil {
		return err
	}

	m.registered = true
	return nil
}

func registerCounterVec(r prometheus.Registerer, c **prometheus.CounterVec) error {
	existing, err := register(r, *c)
	if err != nil {
		return err
	}
	if v, ok := existing.(*prometheus.CounterVec); ok {
		*c = v
	}
	return nil
}

func registerHistogramVec(r prometheus.Registerer, h **prometheus.HistogramVec) error {
	existing, err := register(r, *h)
	if err != nil {
		return err
	}
	if v, ok := existing.(*prometheus.HistogramVec); ok {
		*h = v
	}
	return nil
}

func registerGaugeVec(r prometheus.Registerer, g **prometheus.GaugeVec) error {
	existing, err := register(r, *g)
	if err != nil {
		return err
	}
	if v, ok := existing.(*prometheus.GaugeVec); ok {
		*g = v
	}
	return nil
}

// register returns the collector already registered under c's descriptor,
// or nil when c itself was registered.
func register(r prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	err := r.Register(c)
	if err == nil {
		return nil, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector, nil
	}
	return nil, err
}

// RecordSend records a successful send. status is the pathway result
// status ("sent", "buffered" or "dispatched").
func (m *SendMetrics) RecordSend(pathway, status string, bodySize int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm := m.getOrCreate(pathway)
	switch status {
	case "buffered":
		pm.Buffered++
	case "dispatched":
		pm.Dispatched++
	default:
		pm.Sent++
	}
	if bodySize > 0 {
		pm.BytesSent += uint64(bodySize)
		m.bodyBytes.WithLabelValues(pathway).Observe(float64(bodySize))
	}
	pm.LastUpdatedAt = time.Now()

	m.sendsTotal.WithLabelValues(pathway, status).Inc()
	m.sendDuration.WithLabelValues(pathway).Observe(elapsed.Seconds())
}

// RecordError records a failed send. kind is a short error label such as
// "validation" or "delivery".
func (m *SendMetrics) RecordError(pathway, kind string, err error, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm := m.getOrCreate(pathway)
	pm.Failed++
	if err != nil {
		pm.LastError = err.Error()
	}
	pm.LastUpdatedAt = time.Now()

	m.sendsTotal.WithLabelValues(pathway, "failed").Inc()
	m.errorsTotal.WithLabelValues(pathway, kind).Inc()
	m.sendDuration.WithLabelValues(pathway).Observe(elapsed.Seconds())
}

// SetBuffered reports the number of messages waiting in a pathway buffer.
func (m *SendMetrics) SetBuffered(pathway string, count int) {
	m.bufferedGauge.WithLabelValues(pathway).Set(float64(count))
}

// GetSnapshot returns a copy of all pathway metrics.
func (m *SendMetrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Pathways:    make(map[string]*PathwayMetrics, len(m.pathways)),
		CollectedAt: time.Now(),
	}
	for name, pm := range m.pathways {
		cp := *pm
		snapshot.Pathways[name] = &cp
		snapshot.TotalSent += pm.Sent + pm.Dispatched
		snapshot.TotalFailed += pm.Failed
	}
	return snapshot
}

// GetPathwayMetrics returns a copy of the metrics for one pathway, or nil.
func (m *SendMetrics) GetPathwayMetrics(pathway string) *PathwayMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pm, ok := m.pathways[pathway]; ok {
		cp := *pm
		return &cp
	}
	return nil
}

func (m *SendMetrics) getOrCreate(pathway string) *PathwayMetrics {
	if pm, ok := m.pathways[pathway]; ok {
		return pm
	}
	pm := &PathwayMetrics{}
	m.pathways[pathway] = pm
	return pm
}

// Reset clears all metrics.
func (m *SendMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pathways = make(map[string]*PathwayMetrics)
	m.sendsTotal.Reset()
	m.errorsTotal.Reset()
	m.bodyBytes.Reset()
	m.sendDuration.Reset()
	m.bufferedGauge.Reset()
}
