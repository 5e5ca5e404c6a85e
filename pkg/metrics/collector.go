// Package metrics collects per-stage and per-language pipeline metrics and
// raises edge-triggered threshold alerts.
package metrics

import (
	"runtime"
	"sync"
	"time"
)

// Stage identifies a pipeline stage for latency accounting.
type Stage string

const (
	StageVAD         Stage = "vad"
	StageASR         Stage = "asr"
	StageTranslation Stage = "translation"
	StageSynthesis   Stage = "synthesis"
	StageTotal       Stage = "total"
)

// rollingWindowSize bounds the latency rolling mean.
const rollingWindowSize = 100

// historySize bounds the retained snapshot history.
const historySize = 100

// LanguageStats tracks one target language's health.
type LanguageStats struct {
	SuccessCount  int64 `json:"success_count"`
	ErrorCount    int64 `json:"error_count"`
	LastSuccessMs int64 `json:"last_success_ms,omitempty"`
	LastErrorMs   int64 `json:"last_error_ms,omitempty"`
	IsActive      bool  `json:"is_active"`
}

// ErrorRate returns err/(err+ok), zero with no observations.
func (s LanguageStats) ErrorRate() float64 {
	total := s.SuccessCount + s.ErrorCount
	if total == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(total)
}

// Snapshot is one point-in-time metrics view.
type Snapshot struct {
	TimestampMs int64 `json:"timestamp_ms"`

	// StageLatencyMs holds rolling-mean latencies keyed by stage, with
	// per-language keys like "translation:es".
	StageLatencyMs map[string]float64 `json:"stage_latency_ms"`

	Languages map[string]LanguageStats `json:"languages"`

	MemoryMB         float64 `json:"memory_mb"`
	AudioBufferBytes int64   `json:"audio_buffer_bytes"`

	// Throughput counters, reset each metrics interval.
	SegmentsPerSec     float64 `json:"segments_per_sec"`
	TranslationsPerSec float64 `json:"translations_per_sec"`
	SynthesesPerSec    float64 `json:"syntheses_per_sec"`
}

// rolling is a bounded latency window with an O(1) mean.
type rolling struct {
	values []float64
	next   int
	filled bool
	sum    float64
}

func (r *rolling) add(v float64) {
	if r.values == nil {
		r.values = make([]float64, rollingWindowSize)
	}
	if r.filled {
		r.sum -= r.values[r.next]
	}
	r.values[r.next] = v
	r.sum += v
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.filled = true
	}
}

func (r *rolling) mean() float64 {
	n := r.next
	if r.filled {
		n = len(r.values)
	}
	if n == 0 {
		return 0
	}
	return r.sum / float64(n)
}

// Collector aggregates pipeline metrics. Safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	latencies map[string]*rolling
	languages map[string]*LanguageStats

	segments     int64
	translations int64
	syntheses    int64
	intervalFrom time.Time

	bufferBytes int64
	history     []Snapshot
}

// NewCollector creates an empty collector with the given active languages.
func NewCollector(languages []string) *Collector {
	c := &Collector{
		latencies:    make(map[string]*rolling),
		languages:    make(map[string]*LanguageStats),
		intervalFrom: time.Now(),
	}
	for _, lang := range languages {
		c.languages[lang] = &LanguageStats{IsActive: true}
	}
	return c
}

// latencyKey builds the stage map key; lang may be empty for global stages.
func latencyKey(stage Stage, lang string) string {
	if lang == "" {
		return string(stage)
	}
	return string(stage) + ":" + lang
}

// RecordLatency adds one stage timing to the rolling mean and to the
// Prometheus histogram.
func (c *Collector) RecordLatency(stage Stage, lang string, d time.Duration) {
	key := latencyKey(stage, lang)
	c.mu.Lock()
	r, ok := c.latencies[key]
	if !ok {
		r = &rolling{}
		c.latencies[key] = r
	}
	r.add(float64(d.Milliseconds()))
	c.mu.Unlock()

	stageDuration.WithLabelValues(string(stage), lang).Observe(d.Seconds())
}

// RecordSuccess marks one successful per-language operation.
func (c *Collector) RecordSuccess(lang string) {
	c.mu.Lock()
	s := c.langStatsLocked(lang)
	s.SuccessCount++
	s.LastSuccessMs = time.Now().UnixMilli()
	c.mu.Unlock()
}

// RecordError marks one failed per-language operation.
func (c *Collector) RecordError(lang string) {
	c.mu.Lock()
	s := c.langStatsLocked(lang)
	s.ErrorCount++
	s.LastErrorMs = time.Now().UnixMilli()
	c.mu.Unlock()

	languageErrors.WithLabelValues(lang).Inc()
}

// SetLanguageActive flips a language's availability flag.
func (c *Collector) SetLanguageActive(lang string, active bool) {
	c.mu.Lock()
	c.langStatsLocked(lang).IsActive = active
	c.mu.Unlock()
}

func (c *Collector) langStatsLocked(lang string) *LanguageStats {
	s, ok := c.languages[lang]
	if !ok {
		s = &LanguageStats{IsActive: true}
		c.languages[lang] = s
	}
	return s
}

// RecordSegment counts one finalized VAD segment.
func (c *Collector) RecordSegment() {
	c.mu.Lock()
	c.segments++
	c.mu.Unlock()
	segmentsTotal.Inc()
}

// RecordTranslation counts one completed translation.
func (c *Collector) RecordTranslation() {
	c.mu.Lock()
	c.translations++
	c.mu.Unlock()
	translationsTotal.Inc()
}

// RecordSynthesis counts one completed synthesis.
func (c *Collector) RecordSynthesis() {
	c.mu.Lock()
	c.syntheses++
	c.mu.Unlock()
	synthesesTotal.Inc()
}

// SetAudioBufferBytes reports the audio buffer's resident size.
func (c *Collector) SetAudioBufferBytes(n int64) {
	c.mu.Lock()
	c.bufferBytes = n
	c.mu.Unlock()
	audioBufferBytes.Set(float64(n))
}

// LanguageStatsFor returns a copy of one language's stats.
func (c *Collector) LanguageStatsFor(lang string) LanguageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.languages[lang]; ok {
		return *s
	}
	return LanguageStats{}
}

// Snapshot assembles the current view, resets the interval throughput
// counters, and appends to the bounded history.
func (c *Collector) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	memoryMB := float64(mem.Sys) / (1024 * 1024)

	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.intervalFrom).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}

	snap := Snapshot{
		TimestampMs:        time.Now().UnixMilli(),
		StageLatencyMs:     make(map[string]float64, len(c.latencies)),
		Languages:          make(map[string]LanguageStats, len(c.languages)),
		MemoryMB:           memoryMB,
		AudioBufferBytes:   c.bufferBytes,
		SegmentsPerSec:     float64(c.segments) / elapsed,
		TranslationsPerSec: float64(c.translations) / elapsed,
		SynthesesPerSec:    float64(c.syntheses) / elapsed,
	}
	for key, r := range c.latencies {
		snap.StageLatencyMs[key] = r.mean()
	}
	for lang, s := range c.languages {
		snap.Languages[lang] = *s
	}

	c.segments = 0
	c.translations = 0
	c.syntheses = 0
	c.intervalFrom = time.Now()

	c.history = append(c.history, snap)
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}

	memoryGauge.Set(memoryMB)
	return snap
}

// History returns the retained snapshots, oldest first.
func (c *Collector) History() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Snapshot, len(c.history))
	copy(out, c.history)
	return out
}
