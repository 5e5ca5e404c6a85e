package audio

import "encoding/binary"

// Int16ToFloat32 converts 16-bit signed PCM samples to normalized float32
// in [-1, 1].
func Int16ToFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, v := range pcm {
		out[i] = float32(v) / 32768.0
	}
	return out
}

// Float32ToInt16 converts normalized float32 samples to 16-bit signed PCM.
// Values outside [-1, 1] are clamped to the int16 range.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := v * 32767.0
		if s >= 0 {
			s += 0.5
		} else {
			s -= 0.5
		}
		out[i] = int16(s)
	}
	return out
}

// BytesToFloat32 converts little-endian 16-bit PCM bytes to normalized
// float32 samples. A trailing odd byte is ignored.
func BytesToFloat32(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

// Float32ToBytes converts normalized float32 samples to little-endian
// 16-bit PCM bytes, clamping to [-1, 1].
func Float32ToBytes(samples []float32) []byte {
	pcm := Float32ToInt16(samples)
	data := make([]byte, len(pcm)*2)
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(v))
	}
	return data
}

// MixdownMono averages interleaved multi-channel samples into mono.
// channels must be >= 1; a sample count that is not a multiple of channels
// drops the incomplete trailing frame.
func MixdownMono(samples []float32, channels int) ([]float32, error) {
	if channels <= 0 {
		return nil, NewError(KindInvalidChannelCount, "channel count must be positive").
			With("channels", channels)
	}
	if channels == 1 {
		return samples, nil
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[f*channels+c]
		}
		out[f] = sum / float32(channels)
	}
	return out, nil
}
