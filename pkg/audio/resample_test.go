package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq float64, rate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return out
}

func TestResampleOutputLength(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		inRate  int
		outRate int
		want    int
	}{
		{"48k to 16k", 480, 48000, 16000, 160},
		{"16k to 48k", 160, 16000, 48000, 480},
		{"44.1k to 16k", 4410, 44100, 16000, 1600},
		{"16k to 24k", 100, 16000, 24000, 150},
		{"odd count", 101, 48000, 16000, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resample(make([]float32, tt.n), tt.inRate, tt.outRate)
			require.NoError(t, err)
			assert.Len(t, out, tt.want)
		})
	}
}

func TestResampleIdentity(t *testing.T) {
	in := sine(320, 440, 16000)
	out, err := Resample(in, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestResampleInvalidRates(t *testing.T) {
	_, err := Resample([]float32{1}, 0, 16000)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSampleRate))

	_, err = Resample([]float32{1}, 16000, -1)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSampleRate))

	_, err = NewStreamResampler(16000, 0)
	require.Error(t, err)
}

func TestResamplePreservesShape(t *testing.T) {
	// A 100 Hz sine downsampled 48k -> 16k must stay a 100 Hz sine.
	in := sine(4800, 100, 48000)
	out, err := Resample(in, 48000, 16000)
	require.NoError(t, err)
	want := sine(len(out), 100, 16000)
	for i := range out {
		assert.InDelta(t, want[i], out[i], 0.01, "sample %d", i)
	}
}

// Streaming continuity: for any chunking, concatenated streaming output must
// match the one-shot output within one sample of length and 0.01 amplitude.
func TestStreamResamplerMatchesOneShot(t *testing.T) {
	rates := []struct{ in, out int }{
		{48000, 16000},
		{16000, 48000},
		{44100, 16000},
		{16000, 24000},
	}
	chunkings := [][]int{
		{4800},
		{100, 700, 1, 999, 3000},
		{512, 512, 512, 512, 512, 512, 512, 512, 512, 192},
		{1, 2, 3, 4, 4790},
	}

	for _, r := range rates {
		signal := sine(4800, 200, r.in)
		oneShot, err := Resample(signal, r.in, r.out)
		require.NoError(t, err)

		for ci, chunks := range chunkings {
			sr, err := NewStreamResampler(r.in, r.out)
			require.NoError(t, err)

			var streamed []float32
			pos := 0
			for _, n := range chunks {
				end := pos + n
				if end > len(signal) {
					end = len(signal)
				}
				streamed = append(streamed, sr.Process(signal[pos:end])...)
				pos = end
			}
			streamed = append(streamed, sr.Flush()...)

			lenDiff := len(oneShot) - len(streamed)
			if lenDiff < 0 {
				lenDiff = -lenDiff
			}
			assert.LessOrEqual(t, lenDiff, 1,
				"rates %d->%d chunking %d: length %d vs %d", r.in, r.out, ci, len(streamed), len(oneShot))

			common := len(streamed)
			if len(oneShot) < common {
				common = len(oneShot)
			}
			for i := 0; i < common; i++ {
				assert.InDelta(t, oneShot[i], streamed[i], 0.01,
					"rates %d->%d chunking %d sample %d", r.in, r.out, ci, i)
			}
		}
	}
}

func TestStreamResamplerReset(t *testing.T) {
	sr, err := NewStreamResampler(48000, 16000)
	require.NoError(t, err)

	signal := sine(960, 200, 48000)
	first := append(sr.Process(signal), sr.Flush()...)

	sr.Reset()
	second := append(sr.Process(signal), sr.Flush()...)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "sample %d", i)
	}
}

func TestStreamResamplerIdentityPassthrough(t *testing.T) {
	sr, err := NewStreamResampler(16000, 16000)
	require.NoError(t, err)
	in := sine(320, 440, 16000)
	out := sr.Process(in)
	assert.Equal(t, in, out)
	assert.Empty(t, sr.Flush())
}
