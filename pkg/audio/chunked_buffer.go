package audio

import "math"

const (
	// DefaultMaxBufferSamples bounds the buffer at 30 minutes of 48 kHz audio.
	DefaultMaxBufferSamples = 30 * 60 * 48000
	// DefaultMinRetainSamples is the floor kept resident across evictions.
	DefaultMinRetainSamples = 16000
)

// ChunkedBuffer accumulates an audio stream as a list of owned chunks with
// absolute sample indexing. Append and evict are O(1) in the number of
// samples; extraction copies only the requested range. The buffer tracks
// how many samples have been evicted so extraction by stream-absolute time
// stays correct after old audio is dropped.
type ChunkedBuffer struct {
	chunks     [][]float32
	sampleRate int

	evicted int64 // samples dropped from the front, stream-absolute
	total   int64 // samples currently resident
	// headOffset is the read offset into chunks[0] after a partial evict.
	headOffset int

	maxSamples       int64
	minRetainSamples int64
}

// ChunkedBufferConfig configures a ChunkedBuffer.
type ChunkedBufferConfig struct {
	SampleRate       int
	MaxSamples       int64 // 0 means DefaultMaxBufferSamples
	MinRetainSamples int64 // 0 means DefaultMinRetainSamples
}

// NewChunkedBuffer creates an empty buffer at the given sample rate.
func NewChunkedBuffer(cfg ChunkedBufferConfig) (*ChunkedBuffer, error) {
	if cfg.SampleRate <= 0 {
		return nil, NewError(KindInvalidSampleRate, "buffer sample rate must be positive").
			With("sample_rate", cfg.SampleRate)
	}
	if cfg.MaxSamples == 0 {
		cfg.MaxSamples = DefaultMaxBufferSamples
	}
	if cfg.MinRetainSamples == 0 {
		cfg.MinRetainSamples = DefaultMinRetainSamples
	}
	return &ChunkedBuffer{
		sampleRate:       cfg.SampleRate,
		maxSamples:       cfg.MaxSamples,
		minRetainSamples: cfg.MinRetainSamples,
	}, nil
}

// SampleRate returns the buffer's sample rate.
func (b *ChunkedBuffer) SampleRate() int { return b.sampleRate }

// SetSampleRate changes the sample rate. Only legal while the buffer is
// empty, because resident samples are indexed at the old rate.
func (b *ChunkedBuffer) SetSampleRate(rate int) error {
	if rate <= 0 {
		return NewError(KindInvalidSampleRate, "buffer sample rate must be positive").
			With("sample_rate", rate)
	}
	if b.total != 0 {
		return NewError(KindInvalidSampleRate, "sample rate change requires an empty buffer").
			With("resident_samples", b.total)
	}
	b.sampleRate = rate
	return nil
}

// Append stores a defensive copy of samples as one new chunk, then enforces
// the max-samples bound by evicting from the front.
func (b *ChunkedBuffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	chunk := make([]float32, len(samples))
	copy(chunk, samples)
	b.chunks = append(b.chunks, chunk)
	b.total += int64(len(chunk))

	if b.total > b.maxSamples {
		b.dropFront(b.total - b.maxSamples)
	}
}

// TotalSamples returns the number of resident samples.
func (b *ChunkedBuffer) TotalSamples() int64 { return b.total }

// Duration returns the resident audio duration in seconds.
func (b *ChunkedBuffer) Duration() float64 {
	return float64(b.total) / float64(b.sampleRate)
}

// StartSampleIndex returns the stream-absolute index of the oldest resident
// sample.
func (b *ChunkedBuffer) StartSampleIndex() int64 { return b.evicted }

// EndSampleIndex returns the stream-absolute index one past the newest
// resident sample. StartSampleIndex() + TotalSamples() == EndSampleIndex()
// always holds.
func (b *ChunkedBuffer) EndSampleIndex() int64 { return b.evicted + b.total }

// StartTime returns the stream time in seconds of the oldest resident sample.
func (b *ChunkedBuffer) StartTime() float64 {
	return float64(b.evicted) / float64(b.sampleRate)
}

// EndTime returns the stream time in seconds of the buffer's write head.
func (b *ChunkedBuffer) EndTime() float64 {
	return float64(b.evicted+b.total) / float64(b.sampleRate)
}

// ExtractRange returns an owned copy of the samples whose absolute indices
// fall in [floor(startSec*sr), ceil(endSec*sr)), clamped to what is still
// resident. A range that lies entirely before the resident window yields an
// empty result.
func (b *ChunkedBuffer) ExtractRange(startSec, endSec float64) []float32 {
	start := floorIndex(startSec, b.sampleRate)
	end := ceilIndex(endSec, b.sampleRate)

	if start < b.evicted {
		start = b.evicted
	}
	if end > b.evicted+b.total {
		end = b.evicted + b.total
	}
	if end <= start {
		return []float32{}
	}

	out := make([]float32, 0, end-start)
	abs := b.evicted // absolute index of the current chunk's first resident sample
	for i, chunk := range b.chunks {
		data := chunk
		if i == 0 {
			data = chunk[b.headOffset:]
		}
		chunkStart := abs
		chunkEnd := abs + int64(len(data))
		abs = chunkEnd

		if chunkEnd <= start {
			continue
		}
		if chunkStart >= end {
			break
		}

		lo := int64(0)
		if start > chunkStart {
			lo = start - chunkStart
		}
		hi := int64(len(data))
		if end < chunkEnd {
			hi = end - chunkStart
		}
		out = append(out, data[lo:hi]...)
	}
	return out
}

// EvictBefore drops audio strictly before floor(sec*sr). Whole chunks fully
// before the cut are freed; the oldest remaining chunk may be split. At
// least MinRetainSamples stay resident.
func (b *ChunkedBuffer) EvictBefore(sec float64) {
	target := floorIndex(sec, b.sampleRate)
	if target <= b.evicted {
		return
	}
	drop := target - b.evicted
	if b.total-drop < b.minRetainSamples {
		drop = b.total - b.minRetainSamples
	}
	if drop <= 0 {
		return
	}
	b.dropFront(drop)
}

// indexEpsilon absorbs float artifacts in seconds-to-samples conversion,
// so a time that is exactly a sample boundary does not round past it
// (0.08 * 16000 evaluates to 1280.0000000000002).
const indexEpsilon = 1e-9

func floorIndex(sec float64, sampleRate int) int64 {
	return int64(math.Floor(sec*float64(sampleRate) + indexEpsilon))
}

func ceilIndex(sec float64, sampleRate int) int64 {
	return int64(math.Ceil(sec*float64(sampleRate) - indexEpsilon))
}

// dropFront removes n samples from the head of the buffer.
func (b *ChunkedBuffer) dropFront(n int64) {
	for n > 0 && len(b.chunks) > 0 {
		head := int64(len(b.chunks[0]) - b.headOffset)
		if head <= n {
			b.chunks = b.chunks[1:]
			b.headOffset = 0
			b.evicted += head
			b.total -= head
			n -= head
			continue
		}
		b.headOffset += int(n)
		b.evicted += n
		b.total -= n
		n = 0
	}
}

// Clear drops all resident audio but preserves absolute indexing.
func (b *ChunkedBuffer) Clear() {
	b.dropFront(b.total)
}

// Reset drops all audio and rewinds absolute indexing to zero.
func (b *ChunkedBuffer) Reset() {
	b.chunks = nil
	b.headOffset = 0
	b.evicted = 0
	b.total = 0
}
