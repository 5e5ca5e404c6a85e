package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt16Float32RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 100, -100, 16384, -16384, 32767, -32768}
	back := Float32ToInt16(Int16ToFloat32(in))
	require.Len(t, back, len(in))
	for i := range in {
		diff := int(back[i]) - int(in[i])
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "sample %d: %d -> %d", i, in[i], back[i])
	}
}

func TestFloat32ToInt16Clamping(t *testing.T) {
	out := Float32ToInt16([]float32{1.5, -1.5, 2, -2, 1, -1})
	assert.Equal(t, int16(32767), out[0])
	assert.Equal(t, int16(-32767), out[1])
	assert.Equal(t, int16(32767), out[2])
	assert.Equal(t, int16(-32767), out[3])
	assert.Equal(t, int16(32767), out[4])
	assert.Equal(t, int16(-32767), out[5])
}

func TestBytesFloat32RoundTrip(t *testing.T) {
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 16))
	}
	back := BytesToFloat32(Float32ToBytes(samples))
	require.Len(t, back, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], back[i], 0.001, "sample %d", i)
	}
}

func TestMixdownMono(t *testing.T) {
	tests := []struct {
		name     string
		samples  []float32
		channels int
		want     []float32
		wantErr  bool
	}{
		{
			name:     "stereo average",
			samples:  []float32{1, 0, 0.5, 0.5, -1, 1},
			channels: 2,
			want:     []float32{0.5, 0.5, 0},
		},
		{
			name:     "mono passthrough",
			samples:  []float32{0.1, 0.2},
			channels: 1,
			want:     []float32{0.1, 0.2},
		},
		{
			name:     "incomplete trailing frame dropped",
			samples:  []float32{1, 1, 0.5},
			channels: 2,
			want:     []float32{1},
		},
		{
			name:     "zero channels",
			samples:  []float32{1},
			channels: 0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MixdownMono(tt.samples, tt.channels)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindInvalidChannelCount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
