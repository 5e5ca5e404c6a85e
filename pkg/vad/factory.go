//go:build vad

package vad

// NewDefaultModel loads the ONNX Silero detector from modelPath,
// initializing the ONNX runtime on first use.
func NewDefaultModel(modelPath string) (Model, error) {
	if err := InitRuntime(""); err != nil {
		return nil, err
	}
	return NewDetector(DetectorConfig{ModelPath: modelPath})
}
