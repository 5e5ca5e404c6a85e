package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentChunk creates a span covering one ProcessAudio invocation.
func InstrumentChunk(ctx context.Context, sessionID string, sampleRate, channels, samples int) (context.Context, trace.Span) {
	attrs := SessionAttrs(sessionID)
	attrs = append(attrs, AudioAttrs(sampleRate, channels, samples)...)
	return StartSpan(ctx, "pipeline.process_audio", trace.WithAttributes(attrs...))
}

// InstrumentStage creates a span for one stage of segment processing.
// lang is empty for global stages (vad, asr).
func InstrumentStage(ctx context.Context, stage, lang, segmentID string) (context.Context, trace.Span) {
	name := fmt.Sprintf("stage.%s", stage)
	if lang != "" {
		name = fmt.Sprintf("stage.%s.%s", stage, lang)
	}
	attrs := StageAttrs(stage, lang)
	if segmentID != "" {
		attrs = append(attrs, attribute.String(AttrSegmentID, segmentID))
	}
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// InstrumentSynthesis creates a span for one synthesis request.
func InstrumentSynthesis(ctx context.Context, lang, serverURL string, hasEmbedding bool) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("tts.synthesize.%s", lang),
		trace.WithAttributes(
			attribute.String(AttrTargetLanguage, lang),
			attribute.String(AttrTTSServerURL, serverURL),
			attribute.Bool(AttrTTSHasProsody, hasEmbedding),
		),
	)
}
