package vad

import (
	"github.com/naturally-translate/voice-bridge/pkg/audio"
)

// Segment is a contiguous voiced region in stream-absolute time.
type Segment struct {
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Confidence float32 `json:"confidence"`
}

// Event reports a detected segment. A partial event describes speech still
// in progress; a final event commits the segment.
type Event struct {
	Segment   Segment `json:"segment"`
	IsPartial bool    `json:"is_partial"`
}

// State is the engine's detection state.
type State int

const (
	StateIdle State = iota
	StateSpeaking
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSpeaking:
		return "Speaking"
	default:
		return "Unknown"
	}
}

// EngineConfig tunes the detection state machine.
type EngineConfig struct {
	Threshold            float32 // speech probability threshold, default 0.5
	MinSilenceDurationMs int     // silence needed to close a segment, default 100
	MinSpeechDurationMs  int     // shorter speech is discarded, default 250
	SpeechPadMs          int     // padding applied to both segment edges, default 30
}

// DefaultEngineConfig returns the standard detection tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Threshold:            0.5,
		MinSilenceDurationMs: 100,
		MinSpeechDurationMs:  250,
		SpeechPadMs:          30,
	}
}

func (c *EngineConfig) applyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 0.5
	}
	if c.MinSilenceDurationMs == 0 {
		c.MinSilenceDurationMs = 100
	}
	if c.MinSpeechDurationMs == 0 {
		c.MinSpeechDurationMs = 250
	}
	if c.SpeechPadMs == 0 {
		c.SpeechPadMs = 30
	}
}

// Engine is the streaming speech/silence state machine. It owns the model's
// carry state and the sub-frame pending tail; one Engine serves one audio
// session. Not safe for concurrent use.
type Engine struct {
	model Model
	cfg   EngineConfig

	carry   []float32 // opaque model carry, re-submitted verbatim
	pending []float32 // sub-frame remainder at canonical rate

	state        State
	processedSec float64 // stream time of the last scored frame boundary
	speechStart  float64
	silenceStart float64
	inSilence    bool
	lastProb     float32 // probability of the most recently scored frame

	// Input preprocessing: mixdown happens per push; resampling is phase-
	// continuous across pushes for a stable input rate.
	resampler *audio.StreamResampler
	inRate    int
}

// NewEngine creates a detection engine over the given frame model.
func NewEngine(model Model, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{
		model: model,
		cfg:   cfg,
		state: StateIdle,
	}
}

// State returns the current detection state.
func (e *Engine) State() State { return e.state }

// CurrentTime returns the stream time of the last scored frame boundary in
// seconds.
func (e *Engine) CurrentTime() float64 { return e.processedSec }

// Push feeds a chunk of audio at any rate/channel layout. It preprocesses
// to canonical mono 16 kHz, scores every complete frame, and returns the
// events produced by this chunk: zero or more finals followed by at most
// one partial when speech is still in progress.
func (e *Engine) Push(samples []float32, sampleRate, channels int) ([]Event, error) {
	if sampleRate <= 0 {
		return nil, audio.NewError(audio.KindInvalidSampleRate, "VAD input sample rate must be positive").
			With("sample_rate", sampleRate)
	}
	if channels <= 0 {
		return nil, audio.NewError(audio.KindInvalidChannelCount, "VAD input channel count must be positive").
			With("channels", channels)
	}

	mono, err := audio.MixdownMono(samples, channels)
	if err != nil {
		return nil, err
	}

	canonical := mono
	if sampleRate != CanonicalSampleRate {
		if e.resampler == nil || e.inRate != sampleRate {
			e.resampler, err = audio.NewStreamResampler(sampleRate, CanonicalSampleRate)
			if err != nil {
				return nil, err
			}
			e.inRate = sampleRate
		}
		canonical = e.resampler.Process(mono)
	} else {
		e.inRate = sampleRate
	}

	e.pending = append(e.pending, canonical...)

	var events []Event
	for len(e.pending) >= FrameSize {
		frame := e.pending[:FrameSize]
		e.pending = e.pending[FrameSize:]

		final, err := e.processFrame(frame)
		if err != nil {
			return events, err
		}
		if final != nil {
			events = append(events, *final)
		}
	}

	if e.state == StateSpeaking {
		events = append(events, Event{
			Segment: Segment{
				StartSec:   e.speechStart,
				EndSec:     e.processedSec,
				Confidence: e.lastProb,
			},
			IsPartial: true,
		})
	}
	return events, nil
}

// processFrame scores one complete frame and advances the state machine,
// returning a final event when a segment closes.
func (e *Engine) processFrame(frame []float32) (*Event, error) {
	prob, next, err := e.model.Infer(frame, e.carry)
	if err != nil {
		return nil, audio.WrapError(audio.KindTranscriptionFailed, "VAD inference failed", err)
	}
	e.carry = next
	e.lastProb = prob
	e.processedSec += float64(FrameSize) / float64(CanonicalSampleRate)

	pad := float64(e.cfg.SpeechPadMs) / 1000
	minSilence := float64(e.cfg.MinSilenceDurationMs) / 1000
	minSpeech := float64(e.cfg.MinSpeechDurationMs) / 1000

	if prob >= e.cfg.Threshold {
		if e.state == StateIdle {
			e.state = StateSpeaking
			start := e.processedSec - float64(FrameSize)/float64(CanonicalSampleRate) - pad
			if start < 0 {
				start = 0
			}
			e.speechStart = start
		}
		e.inSilence = false
		return nil, nil
	}

	// Below threshold.
	if e.state != StateSpeaking {
		return nil, nil
	}
	if !e.inSilence {
		e.inSilence = true
		e.silenceStart = e.processedSec - float64(FrameSize)/float64(CanonicalSampleRate)
	}
	if e.processedSec-e.silenceStart < minSilence {
		return nil, nil
	}

	// Silence hysteresis satisfied: close or discard.
	e.state = StateIdle
	e.inSilence = false
	if e.silenceStart-e.speechStart < minSpeech {
		return nil, nil
	}
	return &Event{
		Segment: Segment{
			StartSec:   e.speechStart,
			EndSec:     e.silenceStart + pad,
			Confidence: prob,
		},
	}, nil
}

// Flush pads the pending tail with zeros to one final frame, scores it, and
// closes any in-progress segment of sufficient duration using that frame's
// inferred probability. The flush frame is run even when no tail remains,
// so the closing confidence is always a model score. The engine stays
// usable afterwards; time continues from the flushed position.
func (e *Engine) Flush() (*Event, error) {
	if e.resampler != nil {
		e.pending = append(e.pending, e.resampler.Flush()...)
	}
	frame := make([]float32, FrameSize)
	copy(frame, e.pending)
	e.pending = e.pending[:0]
	final, err := e.processFrame(frame)
	if err != nil {
		return nil, err
	}
	if final != nil {
		return final, nil
	}

	if e.state != StateSpeaking {
		return nil, nil
	}

	pad := float64(e.cfg.SpeechPadMs) / 1000
	minSpeech := float64(e.cfg.MinSpeechDurationMs) / 1000

	e.state = StateIdle
	e.inSilence = false
	if e.processedSec-e.speechStart < minSpeech {
		return nil, nil
	}
	return &Event{
		Segment: Segment{
			StartSec:   e.speechStart,
			EndSec:     e.processedSec + pad,
			Confidence: e.lastProb,
		},
	}, nil
}

// Reset re-zeros the model carry, clears the pending tail, and returns the
// engine to Idle at stream time zero.
func (e *Engine) Reset() {
	e.carry = nil
	e.pending = e.pending[:0]
	e.state = StateIdle
	e.inSilence = false
	e.processedSec = 0
	e.speechStart = 0
	e.silenceStart = 0
	e.lastProb = 0
	if e.resampler != nil {
		e.resampler.Reset()
	}
}
