package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys used throughout the pipeline
const (
	// Session / correlation attributes
	AttrSessionID       = "session.id"
	AttrSegmentID       = "segment.id"
	AttrTranscriptionID = "transcription.id"
	AttrTranslationID   = "translation.id"

	// Stage attributes
	AttrStage          = "pipeline.stage"
	AttrTargetLanguage = "pipeline.target_language"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioChannels   = "audio.channels"
	AttrAudioSamples    = "audio.samples"
	AttrAudioDuration   = "audio.duration_sec"

	// Model/service attributes
	AttrASRModel      = "asr.model"
	AttrTranslator    = "translation.backend"
	AttrTTSServerURL  = "tts.server_url"
	AttrTTSHasProsody = "tts.has_prosody_embedding"

	// Error attributes
	AttrErrorCode    = "error.code"
	AttrErrorMessage = "error.message"
)

// SessionAttrs creates attributes for session correlation.
func SessionAttrs(sessionID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
	}
}

// StageAttrs creates attributes for one pipeline stage, optionally bound
// to a target language.
func StageAttrs(stage, lang string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrStage, stage),
	}
	if lang != "" {
		attrs = append(attrs, attribute.String(AttrTargetLanguage, lang))
	}
	return attrs
}

// AudioAttrs creates attributes describing an audio buffer.
func AudioAttrs(sampleRate, channels, samples int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioChannels, channels),
		attribute.Int(AttrAudioSamples, samples),
	}
	if sampleRate > 0 {
		attrs = append(attrs, attribute.Float64(AttrAudioDuration,
			float64(samples)/float64(sampleRate)))
	}
	return attrs
}

// ErrorAttrs creates attributes for a typed pipeline error.
func ErrorAttrs(code, message string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorCode, code),
		attribute.String(AttrErrorMessage, message),
	}
}
