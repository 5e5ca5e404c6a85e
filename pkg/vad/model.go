// Package vad provides streaming voice activity detection.
//
// The detection model is a recurrent network scored one fixed-size frame at
// a time. Its carry state is opaque to the engine: the engine stores
// whatever slice Infer returns and re-submits it verbatim with the next
// frame. The ONNX Silero implementation lives behind the `vad` build tag;
// tests use MockModel.
package vad

// FrameSize is the model frame length in samples: 512 samples = 32 ms at
// the canonical 16 kHz rate.
const FrameSize = 512

// CanonicalSampleRate is the rate all frames are scored at.
const CanonicalSampleRate = 16000

// Model scores one frame of audio for speech probability.
type Model interface {
	// Infer scores a FrameSize-sample frame. state is the carry returned by
	// the previous call (nil or empty for a fresh stream); the returned
	// slice must be passed to the next call unmodified.
	Infer(frame []float32, state []float32) (prob float32, next []float32, err error)

	// StateSize returns the length of the carry slice this model threads
	// across frames.
	StateSize() int

	// Close releases model resources.
	Close() error
}
