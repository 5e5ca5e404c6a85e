package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

const wavHeaderSize = 44

// EncodeWAV encodes mono float32 samples as a 16-bit PCM WAV file with the
// canonical 44-byte RIFF/WAVE/fmt/data header. Samples are clamped to
// [-1, 1] before scaling.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	pcm := Float32ToBytes(samples)

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))            // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   // sample rate
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// WAVInfo describes the format of a decoded WAV file.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	AudioFormat   int // 1 = PCM, 3 = IEEE float
}

// DecodeWAV decodes a RIFF/WAVE file into mono float32 samples and the
// source sample rate. PCM (16-bit) and IEEE float (32-bit) data are
// accepted; multi-channel audio is mixed down by averaging.
func DecodeWAV(data []byte) ([]float32, int, error) {
	samples, info, err := DecodeWAVInfo(data)
	if err != nil {
		return nil, 0, err
	}
	return samples, info.SampleRate, nil
}

// DecodeWAVInfo is DecodeWAV returning the full format description.
func DecodeWAVInfo(data []byte) ([]float32, *WAVInfo, error) {
	if len(data) < 12 {
		return nil, nil, NewError(KindEmptyBuffer, "WAV data too short for RIFF header").
			With("bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, nil, NewError(KindEmptyBuffer, "missing RIFF marker")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, nil, NewError(KindEmptyBuffer, "missing WAVE marker")
	}

	var info *WAVInfo
	var raw []byte

	// Scan chunks; tolerate unknown chunks by skipping them.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, nil, NewError(KindEmptyBuffer, "fmt chunk too short").
					With("size", size)
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels := int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate := int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))

			if format != 1 && format != 3 {
				return nil, nil, NewError(KindEmptyBuffer, "unsupported WAV audio format").
					With("format", format)
			}
			if bits != 16 && bits != 32 {
				return nil, nil, NewError(KindEmptyBuffer, "unsupported WAV bit depth").
					With("bits", bits)
			}
			if channels <= 0 {
				return nil, nil, NewError(KindInvalidChannelCount, "WAV channel count must be positive").
					With("channels", channels)
			}
			if rate <= 0 {
				return nil, nil, NewError(KindInvalidSampleRate, "WAV sample rate must be positive").
					With("sample_rate", rate)
			}
			info = &WAVInfo{
				SampleRate:    rate,
				Channels:      channels,
				BitsPerSample: bits,
				AudioFormat:   format,
			}
		case "data":
			raw = data[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if info == nil {
		return nil, nil, NewError(KindEmptyBuffer, "missing fmt chunk")
	}
	if raw == nil {
		return nil, nil, NewError(KindEmptyBuffer, "missing data chunk")
	}

	var interleaved []float32
	switch {
	case info.AudioFormat == 1 && info.BitsPerSample == 16:
		interleaved = BytesToFloat32(raw)
	case info.AudioFormat == 3 && info.BitsPerSample == 32:
		n := len(raw) / 4
		interleaved = make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
			interleaved[i] = math.Float32frombits(bits)
		}
	default:
		return nil, nil, NewError(KindEmptyBuffer, "unsupported WAV format/bit-depth combination").
			With("format", info.AudioFormat).With("bits", info.BitsPerSample)
	}

	mono, err := MixdownMono(interleaved, info.Channels)
	if err != nil {
		return nil, nil, err
	}
	return mono, info, nil
}
