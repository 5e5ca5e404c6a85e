package vad

import "math"

// EnergyModel scores frames by RMS energy. It is the no-dependency
// fallback used when the binary is built without the `vad` tag; a
// stand-in for demos, not a detection-quality substitute for Silero.
type EnergyModel struct {
	Threshold float64
}

// NewEnergyModel creates an energy model with the default threshold.
func NewEnergyModel() *EnergyModel {
	return &EnergyModel{Threshold: 0.015}
}

// Infer implements Model.
func (m *EnergyModel) Infer(frame []float32, state []float32) (float32, []float32, error) {
	if len(frame) == 0 {
		return 0, state, nil
	}
	var sum float64
	for _, v := range frame {
		sum += float64(v) * float64(v)
	}
	rms := math.Sqrt(sum / float64(len(frame)))
	if rms > m.Threshold {
		return 0.95, state, nil
	}
	return 0.05, state, nil
}

// StateSize implements Model; the energy heuristic carries no state.
func (m *EnergyModel) StateSize() int { return 0 }

// Close implements Model.
func (m *EnergyModel) Close() error { return nil }

// Ensure EnergyModel implements Model at compile time.
var _ Model = (*EnergyModel)(nil)
