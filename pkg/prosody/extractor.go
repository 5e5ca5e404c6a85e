// Package prosody accumulates voiced audio and extracts a speaker
// embedding once enough context is available, then locks it for the rest
// of the session.
//
// State machine:
//
//	Accumulating -> Extracting -> Locked
//	                    |
//	                    v
//	                  Error -> (next AddAudio) -> Accumulating
//
// Locked ignores further audio. Exactly one extraction is in flight at a
// time; concurrent forcers await the same outcome.
package prosody

import (
	"context"
	"log"
	"sync"

	"github.com/naturally-translate/voice-bridge/pkg/tts"
)

// State is the extractor's lifecycle state.
type State int

const (
	StateAccumulating State = iota
	StateExtracting
	StateLocked
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "Accumulating"
	case StateExtracting:
		return "Extracting"
	case StateLocked:
		return "Locked"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StateChange describes one transition, delivered to listeners.
type StateChange struct {
	Previous            State
	Current             State
	AccumulatedDuration float64
	Embedding           *tts.SpeakerEmbedding
}

// StateListener observes extractor transitions. Listener panics are
// swallowed so a broken observer cannot stall extraction.
type StateListener func(change StateChange)

// Extractor is the embedding extraction state machine. Methods are safe
// for concurrent use.
type Extractor struct {
	client     EmbeddingClient
	sampleRate int

	minSamples    int
	targetSamples int
	maxSamples    int

	mu        sync.Mutex
	state     State
	buffer    []float32
	embedding *tts.SpeakerEmbedding
	inflight  chan struct{} // closed when the running extraction settles
	listeners []StateListener
}

// EmbeddingClient is the slice of the synthesis client the extractor
// needs.
type EmbeddingClient interface {
	ExtractEmbedding(ctx context.Context, samples []float32, sampleRate int) (*tts.SpeakerEmbedding, error)
}

// Config tunes the accumulation thresholds.
type Config struct {
	SampleRate        int     // default 16000
	MinDurationSec    float64 // extraction floor, default 3
	TargetDurationSec float64 // automatic trigger, default 6
	MaxBufferSec      float64 // hard cap forcing extraction, default 10
}

// NewExtractor creates an extractor over the given embedding client.
func NewExtractor(client EmbeddingClient, cfg Config) *Extractor {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.MinDurationSec == 0 {
		cfg.MinDurationSec = 3
	}
	if cfg.TargetDurationSec == 0 {
		cfg.TargetDurationSec = 6
	}
	if cfg.MaxBufferSec == 0 {
		cfg.MaxBufferSec = 10
	}
	return &Extractor{
		client:        client,
		sampleRate:    cfg.SampleRate,
		minSamples:    int(cfg.MinDurationSec * float64(cfg.SampleRate)),
		targetSamples: int(cfg.TargetDurationSec * float64(cfg.SampleRate)),
		maxSamples:    int(cfg.MaxBufferSec * float64(cfg.SampleRate)),
		state:         StateAccumulating,
	}
}

// OnStateChange registers a transition listener.
func (e *Extractor) OnStateChange(l StateListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// State returns the current state.
func (e *Extractor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// AccumulatedDuration returns the buffered voiced audio in seconds.
func (e *Extractor) AccumulatedDuration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(len(e.buffer)) / float64(e.sampleRate)
}

// AddAudio feeds VAD-filtered voiced samples. It returns true when this
// call triggered an extraction. Locked ignores audio; Error recovers back
// to Accumulating.
func (e *Extractor) AddAudio(ctx context.Context, samples []float32) bool {
	e.mu.Lock()
	switch e.state {
	case StateLocked, StateExtracting:
		e.mu.Unlock()
		return false
	case StateError:
		e.buffer = e.buffer[:0]
		e.transitionLocked(StateAccumulating, nil)
	}

	e.buffer = append(e.buffer, samples...)
	if len(e.buffer) > e.maxSamples {
		// Keep the newest audio under the hard cap.
		e.buffer = e.buffer[len(e.buffer)-e.maxSamples:]
	}

	trigger := len(e.buffer) >= e.targetSamples || len(e.buffer) >= e.maxSamples
	if !trigger {
		e.mu.Unlock()
		return false
	}
	e.startExtractionLocked(ctx)
	e.mu.Unlock()
	return true
}

// ExtractNow forces extraction with whatever is buffered. Below the
// minimum it fails with InsufficientAudio. If an extraction is already in
// flight, the call awaits that outcome instead of starting another.
func (e *Extractor) ExtractNow(ctx context.Context) (*tts.SpeakerEmbedding, error) {
	e.mu.Lock()
	switch e.state {
	case StateLocked:
		emb := e.embedding
		e.mu.Unlock()
		return emb, nil
	case StateExtracting:
		done := e.inflight
		e.mu.Unlock()
		return e.await(ctx, done)
	}

	if len(e.buffer) < e.minSamples {
		duration := float64(len(e.buffer)) / float64(e.sampleRate)
		e.mu.Unlock()
		return nil, tts.NewError(tts.KindInsufficientAudio, "not enough voiced audio for embedding extraction").
			With("duration_sec", duration).
			With("min_duration_sec", float64(e.minSamples)/float64(e.sampleRate))
	}

	e.startExtractionLocked(ctx)
	done := e.inflight
	e.mu.Unlock()
	return e.await(ctx, done)
}

// GetEmbedding returns the locked embedding, awaiting an in-flight
// extraction first. After a failed extraction (Error state) it returns an
// EmbeddingExtractionFailed error; otherwise, without a locked embedding or
// a running extraction, it returns nil.
func (e *Extractor) GetEmbedding(ctx context.Context) (*tts.SpeakerEmbedding, error) {
	e.mu.Lock()
	if e.state == StateExtracting {
		done := e.inflight
		e.mu.Unlock()
		return e.await(ctx, done)
	}
	if e.state == StateError {
		e.mu.Unlock()
		return nil, tts.NewError(tts.KindEmbeddingExtractionFailed, "embedding extraction failed")
	}
	emb := e.embedding
	e.mu.Unlock()
	return emb, nil
}

// GetEmbeddingSync returns the locked embedding without blocking, or nil.
func (e *Extractor) GetEmbeddingSync() *tts.SpeakerEmbedding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedding
}

// Reset returns the extractor to Accumulating with an empty buffer. A
// locked embedding is discarded.
func (e *Extractor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = e.buffer[:0]
	e.embedding = nil
	if e.state != StateAccumulating {
		e.transitionLocked(StateAccumulating, nil)
	}
}

// await blocks until the in-flight extraction settles.
func (e *Extractor) await(ctx context.Context, done <-chan struct{}) (*tts.SpeakerEmbedding, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return nil, tts.WrapError(tts.KindCancelled, "embedding wait cancelled", ctx.Err())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateError {
		return nil, tts.NewError(tts.KindEmbeddingExtractionFailed, "embedding extraction failed")
	}
	return e.embedding, nil
}

// startExtractionLocked launches the single in-flight extraction. Caller
// holds e.mu.
func (e *Extractor) startExtractionLocked(ctx context.Context) {
	samples := make([]float32, len(e.buffer))
	copy(samples, e.buffer)
	done := make(chan struct{})
	e.inflight = done
	e.transitionLocked(StateExtracting, nil)

	go func() {
		defer close(done)
		embedding, err := e.client.ExtractEmbedding(ctx, samples, e.sampleRate)

		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			log.Printf("[Prosody] embedding extraction failed: %v", err)
			e.transitionLocked(StateError, nil)
			return
		}
		e.embedding = embedding
		e.buffer = nil
		e.transitionLocked(StateLocked, embedding)
	}()
}

// transitionLocked fires listeners for one state change. Caller holds e.mu.
func (e *Extractor) transitionLocked(next State, embedding *tts.SpeakerEmbedding) {
	prev := e.state
	e.state = next
	change := StateChange{
		Previous:            prev,
		Current:             next,
		AccumulatedDuration: float64(len(e.buffer)) / float64(e.sampleRate),
		Embedding:           embedding,
	}
	for _, l := range e.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Prosody] state listener panicked: %v", r)
				}
			}()
			l(change)
		}()
	}
}
