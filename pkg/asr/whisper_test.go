package asr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

func TestNewWhisperModel_NoAPIKey(t *testing.T) {
	_, err := NewWhisperModel("", "")
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindNotInitialized))
}

func TestWhisperModel_SampleRate(t *testing.T) {
	m, err := NewWhisperModel("test-api-key", "")
	require.NoError(t, err)
	assert.Equal(t, 16000, m.SampleRate())
}

func TestWhisperModel_EmptyAudio(t *testing.T) {
	m, err := NewWhisperModel("test-api-key", "")
	require.NoError(t, err)

	_, err = m.Transcribe(context.Background(), nil, TranscribeOptions{})
	require.Error(t, err)
	assert.True(t, audio.IsKind(err, audio.KindEmptyBuffer))
}
