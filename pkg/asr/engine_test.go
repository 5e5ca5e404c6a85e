package asr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

// mockModel is a scripted transcription model.
type mockModel struct {
	mu         sync.Mutex
	calls      [][]float32
	transcribe func(samples []float32, opts TranscribeOptions) (string, error)
}

func (m *mockModel) Transcribe(ctx context.Context, samples []float32, opts TranscribeOptions) (string, error) {
	m.mu.Lock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	m.calls = append(m.calls, cp)
	m.mu.Unlock()

	if m.transcribe != nil {
		return m.transcribe(samples, opts)
	}
	return fmt.Sprintf("text-%d", len(samples)), nil
}

func (m *mockModel) SampleRate() int { return 16000 }
func (m *mockModel) Close() error    { return nil }

func (m *mockModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func collect(t *testing.T, results <-chan *Result, errs <-chan error) ([]*Result, error) {
	t.Helper()
	var out []*Result
	for results != nil || errs != nil {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			out = append(out, r)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func TestEngineShortAudioSingleFinal(t *testing.T) {
	m := &mockModel{}
	e := NewEngine(m, DefaultEngineConfig())

	// 1 second <= 1.5s window: exactly one final.
	results, errs := e.TranscribeStream(context.Background(),
		TranscribeRequest{Samples: make([]float32, 16000), SampleRate: 16000, Channels: 1})
	out, err := collect(t, results, errs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].IsPartial)
	assert.Equal(t, 1, m.callCount())
}

func TestEngineRollingWindowPartialsThenFinal(t *testing.T) {
	m := &mockModel{}
	e := NewEngine(m, DefaultEngineConfig())

	// 4 seconds of audio: stride boundaries at 0.0, 0.4, ... with a 1.5s
	// window; the last window extends to end-of-audio.
	results, errs := e.TranscribeStream(context.Background(),
		TranscribeRequest{Samples: make([]float32, 4*16000), SampleRate: 16000, Channels: 1})
	out, err := collect(t, results, errs)
	require.NoError(t, err)

	require.Greater(t, len(out), 1, "expected at least one partial before the final")
	for _, r := range out[:len(out)-1] {
		assert.True(t, r.IsPartial)
	}
	final := out[len(out)-1]
	assert.False(t, final.IsPartial)

	// The final window was extended to end-of-audio: its input reaches the
	// last sample.
	lastCall := m.calls[len(m.calls)-1]
	assert.GreaterOrEqual(t, len(lastCall), int(1.5*16000))
}

func TestEngineWordTimestamps(t *testing.T) {
	m := &mockModel{
		transcribe: func(samples []float32, opts TranscribeOptions) (string, error) {
			return "<|0.30|>hello<|0.70|>there<|1.00|>", nil
		},
	}
	e := NewEngine(m, DefaultEngineConfig())

	out, err := e.Transcribe(context.Background(), TranscribeRequest{
		Samples:       make([]float32, 16000),
		SampleRate:    16000,
		Channels:      1,
		TimeOffsetSec: 5.0,
		Options:       TranscribeOptions{Timestamps: true},
	})
	require.NoError(t, err)
	require.Len(t, out.Words, 2)
	assert.Equal(t, "hello there", out.Text)
	assert.Equal(t, 5.0, out.Words[0].StartSec)
	assert.Equal(t, 5.3, out.Words[0].EndSec)
	for _, w := range out.Words {
		assert.GreaterOrEqual(t, w.EndSec, w.StartSec)
	}
}

func TestEnginePreprocessResamplesAndMixes(t *testing.T) {
	m := &mockModel{}
	e := NewEngine(m, DefaultEngineConfig())

	// 48kHz stereo, 1 second: model must receive ~16000 mono samples.
	out, err := e.Transcribe(context.Background(), TranscribeRequest{
		Samples:    make([]float32, 48000*2),
		SampleRate: 48000,
		Channels:   2,
	})
	require.NoError(t, err)
	assert.False(t, out.IsPartial)
	require.Equal(t, 1, m.callCount())
	assert.Equal(t, 16000, len(m.calls[0]))
}

func TestEngineValidation(t *testing.T) {
	e := NewEngine(&mockModel{}, DefaultEngineConfig())

	tests := []struct {
		name string
		req  TranscribeRequest
		kind audio.Kind
	}{
		{"empty", TranscribeRequest{SampleRate: 16000, Channels: 1}, audio.KindEmptyBuffer},
		{"bad rate", TranscribeRequest{Samples: []float32{0}, SampleRate: 0, Channels: 1}, audio.KindInvalidSampleRate},
		{"bad channels", TranscribeRequest{Samples: []float32{0}, SampleRate: 16000, Channels: 0}, audio.KindInvalidChannelCount},
		{"too short", TranscribeRequest{Samples: make([]float32, 160), SampleRate: 16000, Channels: 1}, audio.KindAudioTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Transcribe(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, audio.IsKind(err, tt.kind), "got %v", err)
		})
	}

	// Stream form reports validation failures on the error channel.
	results, errs := e.TranscribeStream(context.Background(), TranscribeRequest{SampleRate: 16000, Channels: 1})
	_, err := collect(t, results, errs)
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindEmptyBuffer))
}

func TestEngineNotInitialized(t *testing.T) {
	e := NewEngine(nil, DefaultEngineConfig())
	_, err := e.Transcribe(context.Background(), TranscribeRequest{
		Samples: make([]float32, 16000), SampleRate: 16000, Channels: 1,
	})
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindNotInitialized))
}

func TestEngineModelErrorPropagates(t *testing.T) {
	m := &mockModel{
		transcribe: func(samples []float32, opts TranscribeOptions) (string, error) {
			return "", errors.New("model exploded")
		},
	}
	e := NewEngine(m, DefaultEngineConfig())

	results, errs := e.TranscribeStream(context.Background(), TranscribeRequest{
		Samples: make([]float32, 4*16000), SampleRate: 16000, Channels: 1,
	})
	_, err := collect(t, results, errs)
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindTranscriptionFailed))
}
