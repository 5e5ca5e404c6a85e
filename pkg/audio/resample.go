package audio

// Linear-interpolation resampling. Output sample k is read at position
// k * (inRate/outRate) in the input index space. The streaming form keeps a
// fractional read position and a one-sample carry so that an arbitrarily
// chunked stream resamples to the same output as a single call.

// Resample converts samples from inRate to outRate in one shot, producing
// exactly floor(len(in) * outRate / inRate) output samples. Identity rates
// return the input unchanged (the result may share storage with in).
func Resample(in []float32, inRate, outRate int) ([]float32, error) {
	if inRate <= 0 {
		return nil, NewError(KindInvalidSampleRate, "input sample rate must be positive").
			With("sample_rate", inRate)
	}
	if outRate <= 0 {
		return nil, NewError(KindInvalidSampleRate, "output sample rate must be positive").
			With("sample_rate", outRate)
	}
	if inRate == outRate || len(in) == 0 {
		return in, nil
	}

	ratio := float64(inRate) / float64(outRate)
	count := int(float64(len(in)) * float64(outRate) / float64(inRate))
	out := make([]float32, count)
	for k := 0; k < count; k++ {
		out[k] = lerpAt(in, float64(k)*ratio)
	}
	return out, nil
}

// lerpAt reads the input at a fractional position, clamping the upper
// neighbour at the final sample.
func lerpAt(in []float32, pos float64) float32 {
	i := int(pos)
	if i >= len(in)-1 {
		return in[len(in)-1]
	}
	frac := float32(pos - float64(i))
	return in[i] + (in[i+1]-in[i])*frac
}

// StreamResampler resamples a chunked stream with the same kernel as
// Resample. Phase is preserved across Process calls: the concatenated
// output for any chunking of an input differs from the one-shot output by
// at most one sample in length.
type StreamResampler struct {
	inRate  int
	outRate int

	consumed int64   // input samples seen so far
	emitted  int64   // output samples produced so far
	last     float32 // final sample of the previous chunk
	hasLast  bool
}

// NewStreamResampler creates a streaming resampler from inRate to outRate.
func NewStreamResampler(inRate, outRate int) (*StreamResampler, error) {
	if inRate <= 0 {
		return nil, NewError(KindInvalidSampleRate, "input sample rate must be positive").
			With("sample_rate", inRate)
	}
	if outRate <= 0 {
		return nil, NewError(KindInvalidSampleRate, "output sample rate must be positive").
			With("sample_rate", outRate)
	}
	return &StreamResampler{inRate: inRate, outRate: outRate}, nil
}

// Process resamples one chunk, returning the output samples that become
// computable with this chunk present. Identity rates return the chunk
// unchanged (may share storage).
func (r *StreamResampler) Process(chunk []float32) []float32 {
	if r.inRate == r.outRate {
		r.consumed += int64(len(chunk))
		return chunk
	}
	if len(chunk) == 0 {
		return nil
	}

	// Extend with the carried sample so reads that straddle the previous
	// chunk boundary interpolate against real data.
	ext := chunk
	base := r.consumed
	if r.hasLast {
		ext = make([]float32, 0, len(chunk)+1)
		ext = append(ext, r.last)
		ext = append(ext, chunk...)
		base = r.consumed - 1
	}
	r.consumed += int64(len(chunk))

	ratio := float64(r.inRate) / float64(r.outRate)
	var out []float32
	for {
		pos := float64(r.emitted) * ratio
		// The upper interpolation neighbour must already be buffered.
		idx := pos - float64(base)
		if int(idx)+1 > len(ext)-1 {
			break
		}
		out = append(out, lerpAt(ext, idx))
		r.emitted++
	}

	r.last = chunk[len(chunk)-1]
	r.hasLast = true
	return out
}

// Flush emits the tail outputs that were held back waiting for an upper
// interpolation neighbour, clamped at the final received sample. After a
// Flush the concatenated Process+Flush output equals the one-shot output
// for the same signal. The resampler is reset afterwards.
func (r *StreamResampler) Flush() []float32 {
	var out []float32
	if r.inRate != r.outRate && r.hasLast {
		count := int64(float64(r.consumed) * float64(r.outRate) / float64(r.inRate))
		for k := r.emitted; k < count; k++ {
			out = append(out, r.last)
		}
	}
	r.Reset()
	return out
}

// Reset restores the resampler to its initial state.
func (r *StreamResampler) Reset() {
	r.consumed = 0
	r.emitted = 0
	r.last = 0
	r.hasLast = false
}
