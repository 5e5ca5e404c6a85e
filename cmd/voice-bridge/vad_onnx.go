//go:build vad

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/naturally-translate/voice-bridge/pkg/models"
	"github.com/naturally-translate/voice-bridge/pkg/vad"
)

// newVADModel loads the ONNX Silero detector, fetching the model file
// through the cache manager when it is not on disk yet.
func newVADModel() (vad.Model, error) {
	cacheDir := os.Getenv("VOICE_BRIDGE_MODEL_DIR")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cacheDir = filepath.Join(home, ".voice-bridge", "models")
	}
	manager, err := models.NewManager(cacheDir, nil)
	if err != nil {
		return nil, err
	}
	modelPath, err := manager.EnsureModel(context.Background(), "silero-vad", nil)
	if err != nil {
		return nil, err
	}
	return vad.NewDefaultModel(modelPath)
}
