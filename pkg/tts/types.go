package tts

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// SpeakerEmbedding is an opaque speaker-characterizing vector. The pipeline
// never inspects its contents; it only moves it between extraction and
// synthesis.
type SpeakerEmbedding struct {
	Data  []float32 `json:"data"`
	Shape []int     `json:"shape"`
}

// SynthesisResult is the decoded output of one synthesis call.
type SynthesisResult struct {
	Audio       []float32 `json:"-"`
	SampleRate  int       `json:"sample_rate"`
	DurationSec float64   `json:"duration_sec"`
}

// HealthStatus is the synthesis service health report.
type HealthStatus struct {
	Status             string   `json:"status"`
	ModelLoaded        bool     `json:"model_loaded"`
	SupportedLanguages []string `json:"supported_languages"`
}

// Wire types for the synthesis service. All audio and embedding payloads
// are base64 of little-endian float32 bytes.

type extractEmbeddingRequest struct {
	AudioBase64 string `json:"audio_base64"`
	SampleRate  int    `json:"sample_rate"`
}

type extractEmbeddingResponse struct {
	EmbeddingBase64       string  `json:"embedding_base64"`
	EmbeddingShape        []int   `json:"embedding_shape"`
	DurationSeconds       float64 `json:"duration_seconds"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

type synthesizeRequest struct {
	Text            string  `json:"text"`
	Language        string  `json:"language"`
	Speed           float64 `json:"speed"`
	EmbeddingBase64 string  `json:"embedding_base64,omitempty"`
}

type synthesizeResponse struct {
	AudioBase64           string  `json:"audio_base64"`
	SampleRate            int     `json:"sample_rate"`
	DurationSeconds       float64 `json:"duration_seconds"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	LatencyWarning        string  `json:"latency_warning,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// EncodeFloat32Base64 encodes float32 samples as base64 of their
// little-endian byte representation.
func EncodeFloat32Base64(samples []float32) string {
	buf := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeFloat32Base64 decodes base64 little-endian float32 bytes.
func DecodeFloat32Base64(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, WrapError(KindNetwork, "invalid base64 payload", err)
	}
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return out, nil
}
