// Package pipeline composes VAD, ASR, translation and synthesis into the
// realtime voice-to-voice translation orchestrator and defines its event
// stream.
package pipeline

import (
	"time"

	"github.com/naturally-translate/voice-bridge/pkg/asr"
	"github.com/naturally-translate/voice-bridge/pkg/metrics"
	"github.com/naturally-translate/voice-bridge/pkg/translation"
	"github.com/naturally-translate/voice-bridge/pkg/vad"
)

// EventType discriminates pipeline events.
type EventType string

const (
	EventVAD           EventType = "vad"
	EventTranscription EventType = "transcription"
	EventTranslation   EventType = "translation"
	EventSynthesis     EventType = "synthesis"
	EventProsody       EventType = "prosody"
	EventMetrics       EventType = "metrics"
	EventError         EventType = "error"
)

// Event is the discriminated pipeline event. Exactly one payload field is
// set, matching Type. Events correlate through the id chain
// segment -> transcription -> translation -> synthesis.
type Event struct {
	Type        EventType `json:"type"`
	TimestampMs int64     `json:"timestamp_ms"`
	SessionID   string    `json:"session_id,omitempty"`

	SegmentID       string `json:"segment_id,omitempty"`
	TranscriptionID string `json:"transcription_id,omitempty"`
	TranslationID   string `json:"translation_id,omitempty"`

	VAD           *VADPayload           `json:"vad,omitempty"`
	Transcription *TranscriptionPayload `json:"transcription,omitempty"`
	Translation   *TranslationPayload   `json:"translation,omitempty"`
	Synthesis     *SynthesisPayload     `json:"synthesis,omitempty"`
	Prosody       *ProsodyPayload       `json:"prosody,omitempty"`
	Metrics       *metrics.Snapshot     `json:"metrics,omitempty"`
	Error         *ErrorPayload         `json:"error,omitempty"`
}

// VADPayload carries a voice activity event, with the segment's audio when
// it was extractable from the buffer.
type VADPayload struct {
	Event vad.Event `json:"event"`
	// Audio is the extracted segment audio for final events. Not part of
	// the JSON surface; subscribers receive sample counts only.
	Audio       []float32 `json:"-"`
	AudioLength int       `json:"audio_length,omitempty"`
}

// TranscriptionPayload carries one ASR result.
type TranscriptionPayload struct {
	Result asr.Result `json:"result"`
}

// TranslationPayload carries one translation result.
type TranslationPayload struct {
	Result translation.Result `json:"result"`
}

// SynthesisPayload carries one synthesis result.
type SynthesisPayload struct {
	TargetLanguage string    `json:"target_language"`
	Audio          []float32 `json:"-"`
	AudioLength    int       `json:"audio_length"`
	SampleRate     int       `json:"sample_rate"`
	DurationSec    float64   `json:"duration_sec"`
}

// ProsodyPayload reports the speaker-embedding extractor state.
type ProsodyPayload struct {
	State               string  `json:"state"`
	AccumulatedDuration float64 `json:"accumulated_duration"`
	HasEmbedding        bool    `json:"has_embedding"`
}

// ErrorPayload reports a recoverable or fatal stage failure.
type ErrorPayload struct {
	Stage          string `json:"stage"`
	TargetLanguage string `json:"target_language,omitempty"`
	Code           string `json:"code,omitempty"`
	Message        string `json:"message"`
	Recoverable    bool   `json:"recoverable"`
}

// newEvent stamps a typed event.
func newEvent(t EventType, sessionID string) Event {
	return Event{
		Type:        t,
		TimestampMs: time.Now().UnixMilli(),
		SessionID:   sessionID,
	}
}
