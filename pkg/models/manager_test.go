package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, payload []byte, withChecksum bool) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	file := ModelFile{Path: "model.onnx", SizeBytes: int64(len(payload))}
	if withChecksum {
		sum := sha256.Sum256(payload)
		file.SHA256 = hex.EncodeToString(sum[:])
	}
	registry := map[string]ModelInfo{
		"test-vad": {
			ID:     "test-vad",
			Name:   "Test VAD",
			Type:   TypeVAD,
			Source: srv.URL,
			Files:  []ModelFile{file},
		},
		"ext-tts": {
			ID:       "ext-tts",
			Name:     "External TTS",
			Type:     TypeTTS,
			External: true,
		},
	}

	m, err := NewManager(t.TempDir(), registry)
	require.NoError(t, err)
	return m, srv
}

func TestManagerEnsureAndCache(t *testing.T) {
	payload := []byte("onnx bytes")
	m, _ := newTestManager(t, payload, true)

	assert.False(t, m.IsModelCached("test-vad"))
	assert.Empty(t, m.GetModelPath("test-vad"))

	var lastDone int64
	path, err := m.EnsureModel(context.Background(), "test-vad", func(done, total int64) {
		lastDone = done
	})
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, int64(len(payload)), lastDone)

	assert.True(t, m.IsModelCached("test-vad"))
	assert.Equal(t, path, m.GetModelPath("test-vad"))
	assert.Equal(t, []string{"test-vad"}, m.ListCachedModels())
}

func TestManagerChecksumMismatch(t *testing.T) {
	m, _ := newTestManager(t, []byte("payload"), true)
	// Corrupt the registry checksum.
	info := m.registry["test-vad"]
	info.Files[0].SHA256 = "deadbeef"
	m.registry["test-vad"] = info

	_, err := m.EnsureModel(context.Background(), "test-vad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.False(t, m.IsModelCached("test-vad"), "a failed download must not be cached")
}

func TestManagerExternalNeverDownloaded(t *testing.T) {
	m, _ := newTestManager(t, []byte("x"), false)

	_, err := m.EnsureModel(context.Background(), "ext-tts", nil)
	require.Error(t, err)
	assert.False(t, m.IsModelCached("ext-tts"))
}

func TestManagerDelete(t *testing.T) {
	m, _ := newTestManager(t, []byte("x"), false)

	_, err := m.EnsureModel(context.Background(), "test-vad", nil)
	require.NoError(t, err)
	require.True(t, m.IsModelCached("test-vad"))

	require.NoError(t, m.DeleteModel("test-vad"))
	assert.False(t, m.IsModelCached("test-vad"))
}

func TestManagerUnknownModel(t *testing.T) {
	m, _ := newTestManager(t, []byte("x"), false)

	_, err := m.EnsureModel(context.Background(), "nope", nil)
	assert.Error(t, err)
	_, err = m.GetModelInfo("nope")
	assert.Error(t, err)
	assert.Error(t, m.DeleteModel("nope"))
}

func TestManagerListModels(t *testing.T) {
	m, _ := newTestManager(t, []byte("x"), false)
	assert.Equal(t, []string{"ext-tts", "test-vad"}, m.ListModels())
}
