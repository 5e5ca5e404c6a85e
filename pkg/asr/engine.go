package asr

import (
	"context"
	"log"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

// EngineConfig tunes the rolling-window transcription schedule.
type EngineConfig struct {
	WindowSec           float64 // analysis window length, default 1.5
	StrideSec           float64 // window advance per partial, default 0.4
	MinAudioDurationSec float64 // shorter input rejects, default 0.1
}

// DefaultEngineConfig returns the standard schedule.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WindowSec:           1.5,
		StrideSec:           0.4,
		MinAudioDurationSec: 0.1,
	}
}

func (c *EngineConfig) applyDefaults() {
	if c.WindowSec == 0 {
		c.WindowSec = 1.5
	}
	if c.StrideSec == 0 {
		c.StrideSec = 0.4
	}
	if c.MinAudioDurationSec == 0 {
		c.MinAudioDurationSec = 0.1
	}
}

// TranscribeRequest is one engine invocation.
type TranscribeRequest struct {
	Samples    []float32
	SampleRate int
	Channels   int
	// TimeOffsetSec shifts word timestamps into stream-absolute time.
	TimeOffsetSec float64
	Options       TranscribeOptions
}

// Engine drives a transcription model over a rolling analysis window,
// emitting partial results at each stride boundary and one final result.
type Engine struct {
	model Model
	cfg   EngineConfig
}

// NewEngine creates a transcription engine over the given model.
func NewEngine(model Model, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{model: model, cfg: cfg}
}

// preprocess validates and converts input to normalized mono at the model's
// required rate.
func (e *Engine) preprocess(req TranscribeRequest) ([]float32, error) {
	if e.model == nil {
		return nil, audio.NewError(audio.KindNotInitialized, "transcription model is not initialized")
	}
	if len(req.Samples) == 0 {
		return nil, audio.NewError(audio.KindEmptyBuffer, "no audio to transcribe")
	}
	if req.SampleRate <= 0 {
		return nil, audio.NewError(audio.KindInvalidSampleRate, "sample rate must be positive").
			With("sample_rate", req.SampleRate)
	}
	if req.Channels <= 0 {
		return nil, audio.NewError(audio.KindInvalidChannelCount, "channel count must be positive").
			With("channels", req.Channels)
	}

	mono, err := audio.MixdownMono(req.Samples, req.Channels)
	if err != nil {
		return nil, err
	}
	samples, err := audio.Resample(mono, req.SampleRate, e.model.SampleRate())
	if err != nil {
		return nil, err
	}

	duration := float64(len(samples)) / float64(e.model.SampleRate())
	if duration < e.cfg.MinAudioDurationSec {
		return nil, audio.NewError(audio.KindAudioTooShort, "audio shorter than minimum duration").
			With("duration_sec", duration).
			With("min_duration_sec", e.cfg.MinAudioDurationSec)
	}
	return samples, nil
}

// Transcribe runs the short-audio path: one model call, one final result.
func (e *Engine) Transcribe(ctx context.Context, req TranscribeRequest) (*Result, error) {
	samples, err := e.preprocess(req)
	if err != nil {
		return nil, err
	}
	return e.transcribeWindow(ctx, samples, req, false)
}

// TranscribeStream runs the rolling-window path as an asynchronous result
// sequence: zero or more partials, then exactly one final. Validation
// failures and model errors arrive on the error channel; both channels
// close when the stream ends.
func (e *Engine) TranscribeStream(ctx context.Context, req TranscribeRequest) (<-chan *Result, <-chan error) {
	results := make(chan *Result, 8)
	errs := make(chan error, 1)

	samples, err := e.preprocess(req)
	if err != nil {
		errs <- err
		close(results)
		close(errs)
		return results, errs
	}

	go func() {
		defer close(results)
		defer close(errs)

		rate := e.model.SampleRate()
		window := int(e.cfg.WindowSec * float64(rate))
		stride := int(e.cfg.StrideSec * float64(rate))
		total := len(samples)

		// Short-audio path: at most one window of input.
		if total <= window {
			final, err := e.transcribeWindow(ctx, samples, req, false)
			if err != nil {
				errs <- err
				return
			}
			e.deliver(ctx, results, final)
			return
		}

		for start := 0; ; start += stride {
			// Trailing-window policy: when the next stride's full window
			// would run past end-of-audio, this window is the final one and
			// extends to end-of-audio.
			last := start+stride+window > total
			end := start + window
			if last {
				end = total
			}

			winReq := req
			winReq.TimeOffsetSec = req.TimeOffsetSec + float64(start)/float64(rate)
			result, err := e.transcribeWindow(ctx, samples[start:end], winReq, !last)
			if err != nil {
				errs <- err
				return
			}
			if !e.deliver(ctx, results, result) {
				return
			}
			if last {
				return
			}
		}
	}()

	return results, errs
}

// transcribeWindow runs one model call over a window and assembles the
// result, parsing timestamp spans when requested.
func (e *Engine) transcribeWindow(ctx context.Context, samples []float32, req TranscribeRequest, partial bool) (*Result, error) {
	raw, err := e.model.Transcribe(ctx, samples, req.Options)
	if err != nil {
		if audio.IsKind(err, audio.KindTranscriptionFailed) {
			return nil, err
		}
		return nil, audio.WrapError(audio.KindTranscriptionFailed, "transcription failed", err)
	}

	result := &Result{
		Text:      raw,
		Language:  req.Options.Language,
		IsPartial: partial,
	}
	if req.Options.Timestamps {
		if words := ParseTimestampedText(raw, req.TimeOffsetSec); words != nil {
			result.Words = words
			result.Text = StripTimestamps(raw)
		}
	}
	return result, nil
}

// deliver sends a result unless the context is gone.
func (e *Engine) deliver(ctx context.Context, results chan<- *Result, r *Result) bool {
	select {
	case results <- r:
		return true
	case <-ctx.Done():
		log.Printf("[ASR] stream cancelled: %v", ctx.Err())
		return false
	}
}

// Close releases the underlying model.
func (e *Engine) Close() error {
	if e.model == nil {
		return nil
	}
	return e.model.Close()
}
