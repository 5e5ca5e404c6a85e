//go:build !vad

package main

import (
	"github.com/naturally-translate/voice-bridge/pkg/vad"
)

// newVADModel returns the energy-heuristic fallback when built without the
// `vad` tag (no ONNX Runtime dependency).
func newVADModel() (vad.Model, error) {
	return vad.NewEnergyModel(), nil
}
