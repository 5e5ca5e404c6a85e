package asr

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

// whisperSampleRate is the rate the Whisper API expects uploads at.
const whisperSampleRate = 16000

// WhisperModel implements Model against the OpenAI Whisper API. The engine
// hands it normalized mono float32 at 16 kHz; the model uploads it as WAV.
type WhisperModel struct {
	client *openai.Client
	model  string
}

// NewWhisperModel creates a Whisper-backed transcription model. apiKey is
// required; model defaults to whisper-1.
func NewWhisperModel(apiKey, model string) (*WhisperModel, error) {
	if apiKey == "" {
		return nil, audio.NewError(audio.KindNotInitialized, "OpenAI API key is required")
	}
	if model == "" {
		model = openai.Whisper1
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientConfig.BaseURL = baseURL
		log.Printf("[Whisper] Using BaseURL: %s", clientConfig.BaseURL)
	}

	return &WhisperModel{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// SampleRate implements Model.
func (w *WhisperModel) SampleRate() int { return whisperSampleRate }

// Transcribe implements Model. Word-timestamp spans are not produced by
// this backend; Timestamps requests are served as plain text.
func (w *WhisperModel) Transcribe(ctx context.Context, samples []float32, opts TranscribeOptions) (string, error) {
	if len(samples) == 0 {
		return "", audio.NewError(audio.KindEmptyBuffer, "audio data is empty")
	}

	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: "audio.wav", // filename hint for the API
		Reader:   bytes.NewReader(audio.EncodeWAV(samples, whisperSampleRate)),
		Language: opts.Language,
	}

	var (
		text string
		err  error
	)
	if opts.Task == TaskTranslate {
		var resp openai.AudioResponse
		resp, err = w.client.CreateTranslation(ctx, req)
		text = resp.Text
	} else {
		var resp openai.AudioResponse
		resp, err = w.client.CreateTranscription(ctx, req)
		text = resp.Text
	}
	if err != nil {
		return "", audio.WrapError(audio.KindTranscriptionFailed, "Whisper API request failed", err)
	}
	return strings.TrimSpace(text), nil
}

// Close implements Model. The HTTP client holds no resources to release.
func (w *WhisperModel) Close() error { return nil }

// Ensure WhisperModel implements Model at compile time.
var _ Model = (*WhisperModel)(nil)
