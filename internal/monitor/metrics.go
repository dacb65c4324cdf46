package monitor

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spluca/filecopy/internal/copier"
)

const namespace = "cp"

// Metrics records copy outcomes on its own registry
type Metrics struct {
	registry *prometheus.Registry

	// CopiesTotal tracks finished copies by result
	CopiesTotal *prometheus.CounterVec

	// BytesCopied tracks bytes written to destinations
	BytesCopied prometheus.Counter

	// ChunksCopied tracks buffer-sized writes
	ChunksCopied prometheus.Counter

	// CopyDuration tracks wall time of a copy
	CopyDuration prometheus.Histogram

	// LastSuccess is the unix time of the last successful copy
	LastSuccess prometheus.Gauge
}

// Compile-time check that Metrics can observe a copy runner.
var _ copier.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the copy metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CopiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "copies_total",
				Help:      "Total number of copies by result",
			},
			[]string{"result"},
		),
		BytesCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_copied_total",
			Help:      "Total number of bytes written to destinations",
		}),
		ChunksCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_copied_total",
			Help:      "Total number of chunks written to destinations",
		}),
		CopyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "copy_duration_seconds",
			Help:      "Duration of copies",
			Buckets:   prometheus.DefBuckets,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful copy",
		}),
	}

	m.registry.MustRegister(
		m.CopiesTotal,
		m.BytesCopied,
		m.ChunksCopied,
		m.CopyDuration,
		m.LastSuccess,
	)

	return m
}

// Registry exposes the gatherer the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCopy implements copier.Observer
func (m *Metrics) ObserveCopy(res copier.Result, err error) {
	m.CopiesTotal.WithLabelValues(resultLabel(err)).Inc()
	m.BytesCopied.Add(float64(res.Bytes))
	m.ChunksCopied.Add(float64(res.Chunks))
	m.CopyDuration.Observe(res.Duration.Seconds())
	if err == nil {
		m.LastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var cerr *copier.Error
	if errors.As(err, &cerr) {
		return cerr.Kind.String()
	}
	return "error"
}
