package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, cfg ChunkedBufferConfig) *ChunkedBuffer {
	t.Helper()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	b, err := NewChunkedBuffer(cfg)
	require.NoError(t, err)
	return b
}

func ramp(n int, start float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

func TestChunkedBufferIndexIdentity(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MinRetainSamples: 1})

	ops := []func(){
		func() { b.Append(ramp(1000, 0)) },
		func() { b.Append(ramp(512, 1000)) },
		func() { b.EvictBefore(0.05) },
		func() { b.Append(ramp(3, 1512)) },
		func() { b.EvictBefore(0.09) },
		func() { b.Append(ramp(5000, 1515)) },
		func() { b.EvictBefore(100) }, // beyond end: clamps to min retain
	}
	for i, op := range ops {
		op()
		assert.Equal(t, b.EndSampleIndex(), b.StartSampleIndex()+b.TotalSamples(),
			"identity broken after op %d", i)
	}
}

func TestChunkedBufferExtractRange(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{})
	// Three chunks: absolute samples 0..999, 1000..1999, 2000..2999.
	b.Append(ramp(1000, 0))
	b.Append(ramp(1000, 1000))
	b.Append(ramp(1000, 2000))

	// Fully resident range spanning a chunk boundary.
	got := b.ExtractRange(0.05, 0.08) // samples 800..1280
	require.Len(t, got, 480)
	for i, v := range got {
		assert.Equal(t, float32(800+i), v, "sample %d", i)
	}

	// Extraction is idempotent.
	again := b.ExtractRange(0.05, 0.08)
	assert.Equal(t, got, again)

	// The copy is owned: mutating it does not affect later extractions.
	got[0] = -1
	assert.Equal(t, float32(800), b.ExtractRange(0.05, 0.08)[0])
}

func TestChunkedBufferExtractPartiallyEvicted(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MinRetainSamples: 1})
	b.Append(ramp(2000, 0))
	b.EvictBefore(0.0625) // evict samples before index 1000

	assert.Equal(t, int64(1000), b.StartSampleIndex())

	// Range straddling the evicted boundary returns only the resident tail.
	got := b.ExtractRange(0.05, 0.075) // request 800..1200, resident from 1000
	require.Len(t, got, 200)
	assert.Equal(t, float32(1000), got[0])

	// Range fully evicted yields empty.
	assert.Empty(t, b.ExtractRange(0.0, 0.05))
}

func TestChunkedBufferEvictSplitsChunk(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MinRetainSamples: 1})
	b.Append(ramp(1000, 0))
	b.Append(ramp(1000, 1000))

	// Cut falls inside the second chunk.
	b.EvictBefore(0.09375) // sample 1500
	assert.Equal(t, int64(1500), b.StartSampleIndex())
	assert.Equal(t, int64(500), b.TotalSamples())
	assert.Equal(t, float32(1500), b.ExtractRange(b.StartTime(), b.EndTime())[0])
}

func TestChunkedBufferMinRetain(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MinRetainSamples: 300})
	b.Append(ramp(1000, 0))

	b.EvictBefore(10) // would drop everything
	assert.Equal(t, int64(300), b.TotalSamples())
	assert.Equal(t, int64(700), b.StartSampleIndex())
}

func TestChunkedBufferMaxSamplesAutoEvict(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MaxSamples: 2500, MinRetainSamples: 1})
	b.Append(ramp(1000, 0))
	b.Append(ramp(1000, 1000))
	b.Append(ramp(1000, 2000))

	assert.Equal(t, int64(2500), b.TotalSamples())
	assert.Equal(t, int64(500), b.StartSampleIndex())
	assert.Equal(t, int64(3000), b.EndSampleIndex())
	assert.Equal(t, float32(500), b.ExtractRange(b.StartTime(), b.EndTime())[0])
}

func TestChunkedBufferSetSampleRate(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{})

	require.NoError(t, b.SetSampleRate(48000))
	assert.Equal(t, 48000, b.SampleRate())

	b.Append(ramp(10, 0))
	err := b.SetSampleRate(16000)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSampleRate))

	b.Reset()
	require.NoError(t, b.SetSampleRate(16000))
}

func TestChunkedBufferAppendCopies(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{})
	src := ramp(100, 0)
	b.Append(src)
	src[0] = -999

	got := b.ExtractRange(0, 1)
	assert.Equal(t, float32(0), got[0])
}

func TestChunkedBufferTimes(t *testing.T) {
	b := newTestBuffer(t, ChunkedBufferConfig{MinRetainSamples: 1})
	b.Append(make([]float32, 16000)) // 1 second
	assert.Equal(t, 0.0, b.StartTime())
	assert.Equal(t, 1.0, b.EndTime())

	b.EvictBefore(0.5)
	assert.Equal(t, 0.5, b.StartTime())
	assert.Equal(t, 1.0, b.EndTime())
	assert.Equal(t, 0.5, b.Duration())
}
