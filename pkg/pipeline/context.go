package pipeline

import (
	"time"

	"github.com/naturally-translate/voice-bridge/pkg/metrics"
	"github.com/naturally-translate/voice-bridge/pkg/prosody"
	"github.com/naturally-translate/voice-bridge/pkg/vad"
)

// Config is the orchestrator configuration.
type Config struct {
	// TargetLanguages is the active set, subset of {es, zh, ko}.
	TargetLanguages []string
	// SourceLanguage is the speaker's language.
	SourceLanguage string
	// EnableProsodyMatching controls speaker-embedding extraction and
	// injection.
	EnableProsodyMatching bool

	LatencyThresholdMs float64 // default 4000
	MemoryThresholdMB  float64 // default 10000
	MetricsIntervalMs  int     // default 5000; <= 0 disables the tick

	// SampleRate is the canonical pipeline rate.
	SampleRate int // default 16000

	TTSServerURL string // default http://localhost:8000

	TranslationQueueSize int // default 100
	TTSQueueSize         int // default 50

	TranslationTaskTimeoutMs int // default 30000
	TTSTaskTimeoutMs         int // default 60000

	MaxRestartAttempts        int // default 3
	TranslationRestartDelayMs int // default 1000
	TTSRestartDelayMs         int // default 2000

	RetryAttempts int // TTS HTTP retries, default 2
	RetryDelayMs  int // default 500

	VAD vad.EngineConfig
}

// DefaultConfig returns the standard pipeline configuration with all three
// target languages active.
func DefaultConfig() Config {
	return Config{
		TargetLanguages:           []string{"es", "zh", "ko"},
		SourceLanguage:            "en",
		EnableProsodyMatching:     true,
		LatencyThresholdMs:        4000,
		MemoryThresholdMB:         10000,
		MetricsIntervalMs:         5000,
		SampleRate:                16000,
		TTSServerURL:              "http://localhost:8000",
		TranslationQueueSize:      100,
		TTSQueueSize:              50,
		TranslationTaskTimeoutMs:  30000,
		TTSTaskTimeoutMs:          60000,
		MaxRestartAttempts:        3,
		TranslationRestartDelayMs: 1000,
		TTSRestartDelayMs:         2000,
		RetryAttempts:             2,
		RetryDelayMs:              500,
		VAD:                       vad.DefaultEngineConfig(),
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TargetLanguages == nil {
		c.TargetLanguages = d.TargetLanguages
	}
	if c.SourceLanguage == "" {
		c.SourceLanguage = d.SourceLanguage
	}
	if c.LatencyThresholdMs == 0 {
		c.LatencyThresholdMs = d.LatencyThresholdMs
	}
	if c.MemoryThresholdMB == 0 {
		c.MemoryThresholdMB = d.MemoryThresholdMB
	}
	if c.MetricsIntervalMs == 0 {
		c.MetricsIntervalMs = d.MetricsIntervalMs
	}
	if c.SampleRate == 0 {
		c.SampleRate = d.SampleRate
	}
	if c.TTSServerURL == "" {
		c.TTSServerURL = d.TTSServerURL
	}
	if c.TranslationQueueSize == 0 {
		c.TranslationQueueSize = d.TranslationQueueSize
	}
	if c.TTSQueueSize == 0 {
		c.TTSQueueSize = d.TTSQueueSize
	}
	if c.TranslationTaskTimeoutMs == 0 {
		c.TranslationTaskTimeoutMs = d.TranslationTaskTimeoutMs
	}
	if c.TTSTaskTimeoutMs == 0 {
		c.TTSTaskTimeoutMs = d.TTSTaskTimeoutMs
	}
	if c.MaxRestartAttempts == 0 {
		c.MaxRestartAttempts = d.MaxRestartAttempts
	}
	if c.TranslationRestartDelayMs == 0 {
		c.TranslationRestartDelayMs = d.TranslationRestartDelayMs
	}
	if c.TTSRestartDelayMs == 0 {
		c.TTSRestartDelayMs = d.TTSRestartDelayMs
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryDelayMs == 0 {
		c.RetryDelayMs = d.RetryDelayMs
	}
}

// SegmentMetadata retains one finalized segment and its extracted audio.
type SegmentMetadata struct {
	ID        string
	Segment   vad.Segment
	Audio     []float32
	CreatedAt time.Time
}

// Context holds the per-session state the orchestrator owns: the session,
// metrics, the prosody extractor, and the segment/transcription indexes.
type Context struct {
	Session *Session
	Config  Config

	Metrics *metrics.Collector
	Prosody *prosody.Extractor // nil when prosody matching is disabled

	segments       map[string]*SegmentMetadata
	transcriptions map[string]string // transcription id -> segment id

	// prosodyState is the last extractor state surfaced as an event, so the
	// hot path only yields prosody events on meaningful change.
	prosodyState prosody.State
}

// newContext builds a fresh context; the prosody extractor is constructed
// only when enabled.
func newContext(cfg Config, embeddingClient prosody.EmbeddingClient) *Context {
	pc := &Context{
		Session:        NewSession(),
		Config:         cfg,
		Metrics:        metrics.NewCollector(cfg.TargetLanguages),
		segments:       make(map[string]*SegmentMetadata),
		transcriptions: make(map[string]string),
	}
	if cfg.EnableProsodyMatching && embeddingClient != nil {
		pc.Prosody = prosody.NewExtractor(embeddingClient, prosody.Config{
			SampleRate: cfg.SampleRate,
		})
	}
	return pc
}

// AddSegment indexes a finalized segment.
func (c *Context) AddSegment(meta *SegmentMetadata) {
	c.segments[meta.ID] = meta
}

// Segment looks up a segment by id.
func (c *Context) Segment(id string) (*SegmentMetadata, bool) {
	meta, ok := c.segments[id]
	return meta, ok
}

// LinkTranscription records a transcription's segment.
func (c *Context) LinkTranscription(transcriptionID, segmentID string) {
	c.transcriptions[transcriptionID] = segmentID
}

// SegmentForTranscription resolves a transcription back to its segment.
func (c *Context) SegmentForTranscription(transcriptionID string) (string, bool) {
	segID, ok := c.transcriptions[transcriptionID]
	return segID, ok
}
