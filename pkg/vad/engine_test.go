package vad

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

// pushFrames feeds n complete frames worth of canonical-rate audio.
func pushFrames(t *testing.T, e *Engine, n int) []Event {
	t.Helper()
	events, err := e.Push(make([]float32, n*FrameSize), CanonicalSampleRate, 1)
	require.NoError(t, err)
	return events
}

func TestEngineSilenceStaysIdle(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.1), DefaultEngineConfig())

	events := pushFrames(t, e, 30)
	assert.Empty(t, events)
	assert.Equal(t, StateIdle, e.State())
}

func TestEnginePartialWhileSpeaking(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	events := pushFrames(t, e, 10)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsPartial)
	assert.Equal(t, StateSpeaking, e.State())
	assert.Greater(t, events[0].Segment.EndSec, events[0].Segment.StartSec)
}

func TestEngineFinalAfterSilence(t *testing.T) {
	// 10 speech frames (320ms > min 250ms), then sustained silence.
	probs := make([]float32, 0, 30)
	for i := 0; i < 10; i++ {
		probs = append(probs, 0.9)
	}
	for i := 0; i < 20; i++ {
		probs = append(probs, 0.1)
	}
	e := NewEngine(NewMockModelWithSequence(probs), DefaultEngineConfig())

	events := pushFrames(t, e, 30)

	var finals []Event
	for _, ev := range events {
		if !ev.IsPartial {
			finals = append(finals, ev)
		}
	}
	require.Len(t, finals, 1)
	seg := finals[0].Segment
	assert.Greater(t, seg.EndSec, seg.StartSec)
	// Duration covers the voiced region (pad included on both edges).
	assert.GreaterOrEqual(t, seg.EndSec-seg.StartSec, 0.25)
	assert.InDelta(t, 0.1, float64(seg.Confidence), 1e-6)
	assert.Equal(t, StateIdle, e.State())
}

func TestEngineShortSpeechDiscarded(t *testing.T) {
	// 3 speech frames = 96ms < min 250ms: must be dropped, no final.
	probs := []float32{0.9, 0.9, 0.9, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	e := NewEngine(NewMockModelWithSequence(probs), DefaultEngineConfig())

	events := pushFrames(t, e, 10)
	for _, ev := range events {
		assert.True(t, ev.IsPartial, "short speech must not produce a final")
	}
	assert.Equal(t, StateIdle, e.State())
}

func TestEngineSilenceHysteresis(t *testing.T) {
	// A single silent frame (32ms < 100ms) inside speech must not close the
	// segment.
	probs := []float32{0.9, 0.9, 0.9, 0.9, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9}
	e := NewEngine(NewMockModelWithSequence(probs), DefaultEngineConfig())

	events := pushFrames(t, e, 10)
	for _, ev := range events {
		assert.True(t, ev.IsPartial)
	}
	assert.Equal(t, StateSpeaking, e.State())
}

func TestEngineFlushEmitsFinal(t *testing.T) {
	// Speech still in progress at end of stream: flush must commit it once.
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	events := pushFrames(t, e, 10)
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].IsPartial)

	final, err := e.Flush()
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.False(t, final.IsPartial)
	assert.GreaterOrEqual(t, final.Segment.EndSec-final.Segment.StartSec, 0.25)
	// The forced close carries the flush frame's inferred probability.
	assert.InDelta(t, 0.9, float64(final.Segment.Confidence), 1e-6)
	assert.Equal(t, StateIdle, e.State())

	// A second flush has nothing left to commit.
	again, err := e.Flush()
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestEngineFlushDiscardsShortSpeech(t *testing.T) {
	probs := []float32{0.1, 0.1, 0.9, 0.9}
	e := NewEngine(NewMockModelWithSequence(probs), DefaultEngineConfig())

	pushFrames(t, e, 4)
	final, err := e.Flush()
	require.NoError(t, err)
	assert.Nil(t, final)
}

func TestEngineFlushPadsTail(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	// 10 full frames plus a 100-sample tail.
	_, err := e.Push(make([]float32, 10*FrameSize+100), CanonicalSampleRate, 1)
	require.NoError(t, err)

	model := e.model.(*MockModel)
	before := model.InferCallCount()
	_, err = e.Flush()
	require.NoError(t, err)
	// The tail was padded into exactly one more frame.
	assert.Equal(t, before+1, model.InferCallCount())
	assert.Len(t, model.InferCalls[before], FrameSize)
}

func TestEngineFlushRunsFrameWhenAligned(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	// Frame-aligned push: the pending tail is empty at flush time.
	pushFrames(t, e, 10)

	model := e.model.(*MockModel)
	before := model.InferCallCount()
	final, err := e.Flush()
	require.NoError(t, err)
	require.NotNil(t, final)

	// The zero-padded flush frame is scored regardless of an empty tail.
	require.Equal(t, before+1, model.InferCallCount())
	flushFrame := model.InferCalls[before]
	require.Len(t, flushFrame, FrameSize)
	for i, v := range flushFrame {
		if v != 0 {
			t.Fatalf("flush frame sample %d = %v, want all zeros", i, v)
		}
	}
	assert.InDelta(t, 0.9, float64(final.Segment.Confidence), 1e-6)
}

func TestEngineSegmentsOrderedNonOverlapping(t *testing.T) {
	// Two voiced regions separated by ample silence.
	var probs []float32
	appendN := func(p float32, n int) {
		for i := 0; i < n; i++ {
			probs = append(probs, p)
		}
	}
	appendN(0.9, 10)
	appendN(0.1, 10)
	appendN(0.9, 10)
	appendN(0.1, 10)
	e := NewEngine(NewMockModelWithSequence(probs), DefaultEngineConfig())

	events := pushFrames(t, e, 40)
	var finals []Segment
	for _, ev := range events {
		if !ev.IsPartial {
			finals = append(finals, ev.Segment)
		}
	}
	require.Len(t, finals, 2)
	assert.Less(t, finals[0].EndSec, finals[1].StartSec, "segments must not overlap")
}

func TestEngineCarryThreadedVerbatim(t *testing.T) {
	m := NewMockModelWithProb(0.9)
	e := NewEngine(m, DefaultEngineConfig())

	pushFrames(t, e, 5)
	// MockModel increments carry[0] per frame; the engine must have passed
	// the evolving carry back each time.
	assert.Equal(t, float32(5), e.carry[0])

	e.Reset()
	assert.Nil(t, e.carry)
	assert.Equal(t, 0.0, e.CurrentTime())

	pushFrames(t, e, 2)
	assert.Equal(t, float32(2), e.carry[0])
}

func TestEngineResamplesInput(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	// 48 kHz stereo input: 3x the samples per canonical frame, 2 channels.
	n := 10 * FrameSize * 3 * 2
	events, err := e.Push(make([]float32, n), 48000, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	// ~10 frames of canonical audio were scored.
	assert.InDelta(t, 10*0.032, e.CurrentTime(), 0.033)
}

func TestEngineInvalidInput(t *testing.T) {
	e := NewEngine(NewMockModelWithProb(0.9), DefaultEngineConfig())

	_, err := e.Push([]float32{0}, 0, 1)
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindInvalidSampleRate))

	_, err = e.Push([]float32{0}, 16000, 0)
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindInvalidChannelCount))
}

func TestEngineInferenceErrorPropagates(t *testing.T) {
	m := NewMockModel()
	m.InferFunc = func(frame []float32) (float32, error) {
		return 0, errors.New("onnx session died")
	}
	e := NewEngine(m, DefaultEngineConfig())

	_, err := e.Push(make([]float32, FrameSize), CanonicalSampleRate, 1)
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindTranscriptionFailed))
}
