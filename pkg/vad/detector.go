// ONNX-backed Silero VAD model.
//
// This file uses onnxruntime_go for inference and is only built with the
// `vad` tag, so the rest of the module stays free of the ONNX Runtime
// shared-library requirement.
//
// Usage:
//
//	// Initialize the ONNX runtime (call once at startup)
//	if err := vad.InitRuntime(""); err != nil {
//	    log.Fatal(err)
//	}
//	defer vad.DestroyRuntime()
//
//	model, err := vad.NewDetector(vad.DetectorConfig{ModelPath: "silero_vad.onnx"})
//
//go:build vad

package vad

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	lstmStateLen = 2 * 1 * 128
	contextLen   = 64
)

// runtimeInitialized tracks whether the ONNX runtime has been initialized.
var (
	runtimeInitialized bool
	runtimeMu          sync.Mutex
)

// InitRuntime initializes the ONNX runtime environment. libraryPath can be
// empty to use auto-detection. Call once at application startup before
// creating any detectors.
func InitRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeInitialized {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	} else {
		if libPath := findONNXRuntimeLibrary(); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	runtimeInitialized = true
	return nil
}

// DestroyRuntime destroys the ONNX runtime environment at shutdown.
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeInitialized {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy ONNX runtime: %w", err)
	}
	runtimeInitialized = false
	return nil
}

// findONNXRuntimeLibrary tries to find the ONNX Runtime shared library.
func findONNXRuntimeLibrary() string {
	paths := []string{
		os.Getenv("ONNXRUNTIME_LIB"),
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/onnxruntime/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}

	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		for _, dir := range filepath.SplitList(ldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.so"))
		}
	}
	if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
		for _, dir := range filepath.SplitList(dyldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.dylib"))
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DetectorConfig holds configuration for creating a Silero detector.
type DetectorConfig struct {
	// The path to the ONNX Silero VAD model file to load.
	ModelPath string
}

// Detector scores frames with the Silero VAD model. The LSTM state and the
// 64-sample context window are packed into the opaque carry slice, so a
// Detector instance itself is stateless across frames and can serve
// multiple sessions.
type Detector struct {
	session *ort.DynamicAdvancedSession

	inputNames  []string
	outputNames []string
}

// NewDetector creates a new Silero detector. InitRuntime must have been
// called (it is attempted automatically on first use).
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("invalid ModelPath: should not be empty")
	}

	runtimeMu.Lock()
	initialized := runtimeInitialized
	runtimeMu.Unlock()
	if !initialized {
		if err := InitRuntime(""); err != nil {
			return nil, fmt.Errorf("ONNX runtime not initialized: %w", err)
		}
	}

	d := &Detector{
		inputNames:  []string{"input", "state", "sr"},
		outputNames: []string{"output", "stateN"},
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	if err := options.SetIntraOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		d.inputNames,
		d.outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	d.session = session
	return d, nil
}

// StateSize implements Model. The carry packs the LSTM state followed by
// the context tail.
func (d *Detector) StateSize() int { return lstmStateLen + contextLen }

// Infer implements Model: scores one frame and returns the speech
// probability together with the next carry.
func (d *Detector) Infer(frame []float32, state []float32) (float32, []float32, error) {
	if d == nil || d.session == nil {
		return 0, nil, fmt.Errorf("invalid nil detector")
	}

	carry := state
	if len(carry) != d.StateSize() {
		carry = make([]float32, d.StateSize())
	}
	lstm := carry[:lstmStateLen]
	ctx := carry[lstmStateLen:]

	// Prepend the context tail for continuity; a zero context is harmless
	// on the first frame of a stream.
	pcm := make([]float32, 0, contextLen+len(frame))
	pcm = append(pcm, ctx...)
	pcm = append(pcm, frame...)

	inputShape := ort.NewShape(1, int64(len(pcm)))
	inputTensor, err := ort.NewTensor(inputShape, pcm)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	stateShape := ort.NewShape(2, 1, 128)
	stateData := make([]float32, lstmStateLen)
	copy(stateData, lstm)
	stateTensor, err := ort.NewTensor(stateShape, stateData)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer stateTensor.Destroy()

	srShape := ort.NewShape(1)
	srTensor, err := ort.NewTensor(srShape, []int64{CanonicalSampleRate})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create sr tensor: %w", err)
	}
	defer srTensor.Destroy()

	outputShape := ort.NewShape(1, 1)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	stateNShape := ort.NewShape(2, 1, 128)
	stateNTensor, err := ort.NewEmptyTensor[float32](stateNShape)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create stateN tensor: %w", err)
	}
	defer stateNTensor.Destroy()

	inputs := []ort.Value{inputTensor, stateTensor, srTensor}
	outputs := []ort.Value{outputTensor, stateNTensor}

	if err := d.session.Run(inputs, outputs); err != nil {
		return 0, nil, fmt.Errorf("failed to run inference: %w", err)
	}

	next := make([]float32, d.StateSize())
	copy(next[:lstmStateLen], stateNTensor.GetData())
	if len(frame) >= contextLen {
		copy(next[lstmStateLen:], frame[len(frame)-contextLen:])
	} else {
		// Short final frame: roll the context window forward.
		keep := contextLen - len(frame)
		copy(next[lstmStateLen:], ctx[len(ctx)-keep:])
		copy(next[lstmStateLen+keep:], frame)
	}

	outputData := outputTensor.GetData()
	if len(outputData) == 0 {
		return 0, nil, fmt.Errorf("empty output from inference")
	}
	return outputData[0], next, nil
}

// Close releases all resources held by the detector.
func (d *Detector) Close() error {
	if d == nil {
		return fmt.Errorf("invalid nil detector")
	}
	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		d.session = nil
	}
	return nil
}

// Ensure Detector implements Model at compile time.
var _ Model = (*Detector)(nil)
