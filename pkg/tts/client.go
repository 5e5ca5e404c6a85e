// Package tts provides a stateless HTTP client for the external speech
// synthesis service.
//
// The client is safe for concurrent use. Transport failures are retried
// with a fixed delay; HTTP error responses carry the service's `detail`
// message in typed errors. A synthesis call with a speaker embedding can
// optionally fall back to neutral voice when the embedded request fails.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// DefaultServerURL is the default synthesis service address.
	DefaultServerURL = "http://localhost:8000"

	defaultRequestTimeout = 30 * time.Second
	defaultRetryAttempts  = 2
	defaultRetryDelay     = 500 * time.Millisecond
)

// supportedLanguages is the language set enforced client-side.
var supportedLanguages = map[string]bool{
	"es": true,
	"zh": true,
	"ko": true,
}

// ClientConfig configures the synthesis client.
type ClientConfig struct {
	ServerURL      string        // default http://localhost:8000
	RequestTimeout time.Duration // per-request timeout, default 30s
	RetryAttempts  int           // transport retries per call, default 2
	RetryDelay     time.Duration // delay between retries, default 500ms
}

// Client talks to the synthesis service over HTTP/JSON.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// NewClient creates a synthesis client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Client{
		baseURL:       cfg.ServerURL,
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// SupportedLanguages returns the languages the client accepts.
func SupportedLanguages() []string {
	return []string{"es", "zh", "ko"}
}

// Health checks the synthesis service.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &status, KindNetwork); err != nil {
		return nil, err
	}
	return &status, nil
}

// ExtractEmbedding sends voiced audio to the service and returns the
// speaker embedding.
func (c *Client) ExtractEmbedding(ctx context.Context, samples []float32, sampleRate int) (*SpeakerEmbedding, error) {
	if len(samples) == 0 {
		return nil, NewError(KindInsufficientAudio, "no audio for embedding extraction")
	}

	req := extractEmbeddingRequest{
		AudioBase64: EncodeFloat32Base64(samples),
		SampleRate:  sampleRate,
	}
	var resp extractEmbeddingResponse
	if err := c.doJSON(ctx, http.MethodPost, "/extract-embedding", req, &resp, KindEmbeddingExtractionFailed); err != nil {
		return nil, err
	}

	data, err := DecodeFloat32Base64(resp.EmbeddingBase64)
	if err != nil {
		return nil, WrapError(KindEmbeddingExtractionFailed, "failed to decode embedding payload", err)
	}
	return &SpeakerEmbedding{Data: data, Shape: resp.EmbeddingShape}, nil
}

// SynthesizeRequest is one synthesis call.
type SynthesizeRequest struct {
	Text     string
	Language string  // must be one of es, zh, ko
	Speed    float64 // 0 means 1.0
	// Embedding, when set, requests speaker-matched synthesis.
	Embedding *SpeakerEmbedding
	// FallbackToNeutral re-issues a failed embedded request once without
	// the embedding.
	FallbackToNeutral bool
}

// Synthesize converts text to speech.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesisResult, error) {
	if !supportedLanguages[req.Language] {
		return nil, NewError(KindUnsupportedLanguage, "language not supported by synthesis service").
			With("language", req.Language).
			With("allowed", SupportedLanguages())
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}

	result, err := c.synthesizeOnce(ctx, req, req.Embedding)
	if err != nil && req.Embedding != nil && req.FallbackToNeutral && ctx.Err() == nil {
		log.Printf("[TTS] embedded synthesis failed (%v), falling back to neutral voice", err)
		return c.synthesizeOnce(ctx, req, nil)
	}
	return result, err
}

func (c *Client) synthesizeOnce(ctx context.Context, req SynthesizeRequest, embedding *SpeakerEmbedding) (*SynthesisResult, error) {
	wire := synthesizeRequest{
		Text:     req.Text,
		Language: req.Language,
		Speed:    req.Speed,
	}
	if embedding != nil {
		wire.EmbeddingBase64 = EncodeFloat32Base64(embedding.Data)
	}

	var resp synthesizeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/synthesize", wire, &resp, KindSynthesisFailed); err != nil {
		return nil, err
	}
	if resp.LatencyWarning != "" {
		log.Printf("[TTS] latency warning: %s", resp.LatencyWarning)
	}

	samples, err := DecodeFloat32Base64(resp.AudioBase64)
	if err != nil {
		return nil, WrapError(KindSynthesisFailed, "failed to decode audio payload", err)
	}
	return &SynthesisResult{
		Audio:       samples,
		SampleRate:  resp.SampleRate,
		DurationSec: resp.DurationSeconds,
	}, nil
}

// doJSON performs one JSON request with transport retries. HTTP error
// responses are not retried: the body's detail message is surfaced with
// failKind. Transport exhaustion yields ServerUnavailable; cancellation
// aborts immediately.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}, failKind Kind) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return WrapError(failKind, "failed to marshal request body", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return WrapError(KindCancelled, "request cancelled", ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return WrapError(failKind, "failed to create HTTP request", err)
		}
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return WrapError(KindCancelled, "request cancelled", ctx.Err())
			}
			lastErr = err
			log.Printf("[TTS] %s %s attempt %d/%d failed: %v", method, path, attempt+1, c.retryAttempts+1, err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode != http.StatusOK {
			detail := parseDetail(respBody)
			return NewError(failKind, detail).
				With("status", resp.StatusCode).
				With("path", path)
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return WrapError(failKind, "failed to decode response body", err)
			}
		}
		return nil
	}

	return WrapError(KindServerUnavailable,
		fmt.Sprintf("synthesis service unreachable after %d attempts", c.retryAttempts+1), lastErr).
		With("path", path)
}

// parseDetail extracts the service's error detail, falling back to the raw
// body.
func parseDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Detail != "" {
		return er.Detail
	}
	if len(body) > 0 {
		return string(body)
	}
	return "synthesis service returned an error"
}
