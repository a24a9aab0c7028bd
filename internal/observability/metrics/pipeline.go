package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the detection and ingestion pipeline
type PipelineMetrics struct {
	imagesProcessedTotal  prometheus.Counter
	imagesFailedTotal     prometheus.Counter
	detectionsTotal       prometheus.Counter
	messagesUpsertedTotal prometheus.Counter
	inferenceDuration     prometheus.Histogram
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		imagesProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediascan_images_processed_total",
			Help: "Total number of images run through the detector",
		}),
		imagesFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediascan_images_failed_total",
			Help: "Total number of images the detector failed on",
		}),
		detectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediascan_detections_total",
			Help: "Total number of detection records produced",
		}),
		messagesUpsertedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediascan_messages_upserted_total",
			Help: "Total number of message rows handed to the bulk upsert path",
		}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediascan_inference_duration_seconds",
			Help:    "Duration of a single model inference in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.imagesProcessedTotal,
		m.imagesFailedTotal,
		m.detectionsTotal,
		m.messagesUpsertedTotal,
		m.inferenceDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordImageProcessed increments the processed image counter
func (m *PipelineMetrics) RecordImageProcessed() {
	m.imagesProcessedTotal.Inc()
}

// RecordImageFailed increments the failed image counter
func (m *PipelineMetrics) RecordImageFailed() {
	m.imagesFailedTotal.Inc()
}

// RecordDetections adds to the detection record counter
func (m *PipelineMetrics) RecordDetections(count int) {
	m.detectionsTotal.Add(float64(count))
}

// RecordMessagesUpserted adds to the upserted message counter
func (m *PipelineMetrics) RecordMessagesUpserted(count int) {
	m.messagesUpsertedTotal.Add(float64(count))
}

// RecordInferenceDuration records the duration of one model invocation
func (m *PipelineMetrics) RecordInferenceDuration(seconds float64) {
	m.inferenceDuration.Observe(seconds)
}
