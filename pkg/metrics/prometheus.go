package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebridge_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"stage", "language"})

	segmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_segments_total",
		Help: "Finalized VAD segments processed",
	})

	translationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_translations_total",
		Help: "Completed translations",
	})

	synthesesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_syntheses_total",
		Help: "Completed syntheses",
	})

	languageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_language_errors_total",
		Help: "Per-language processing errors",
	}, []string{"language"})

	memoryGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebridge_memory_mb",
		Help: "Process memory at the last snapshot",
	})

	audioBufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebridge_audio_buffer_bytes",
		Help: "Resident audio buffer size",
	})
)
