package vad

import "sync"

// MockModel is a Model implementation for testing. Behavior is customized
// through InferFunc; calls are recorded for verification.
type MockModel struct {
	// InferFunc is called when Infer is invoked. If nil, Infer returns 0.0
	// (no speech).
	InferFunc func(frame []float32) (float32, error)

	// InferCalls records every scored frame.
	InferCalls [][]float32

	// StateLen is the reported carry length (default 4).
	StateLen int

	// CloseCalled tracks whether Close was called.
	CloseCalled bool

	mu sync.Mutex
}

// NewMockModel creates a MockModel with default behavior.
func NewMockModel() *MockModel {
	return &MockModel{InferCalls: make([][]float32, 0)}
}

// NewMockModelWithProb creates a MockModel returning a fixed probability.
func NewMockModelWithProb(prob float32) *MockModel {
	m := NewMockModel()
	m.InferFunc = func(frame []float32) (float32, error) { return prob, nil }
	return m
}

// NewMockModelWithSequence creates a MockModel that returns the given
// probabilities in order, cycling after the last one.
func NewMockModelWithSequence(probs []float32) *MockModel {
	m := NewMockModel()
	idx := 0
	m.InferFunc = func(frame []float32) (float32, error) {
		if len(probs) == 0 {
			return 0, nil
		}
		prob := probs[idx]
		idx = (idx + 1) % len(probs)
		return prob, nil
	}
	return m
}

// Infer implements Model. The returned carry counts the frames scored so
// far, which lets tests assert the engine threads it verbatim.
func (m *MockModel) Infer(frame []float32, state []float32) (float32, []float32, error) {
	m.mu.Lock()
	frameCopy := make([]float32, len(frame))
	copy(frameCopy, frame)
	m.InferCalls = append(m.InferCalls, frameCopy)
	m.mu.Unlock()

	next := make([]float32, m.StateSize())
	if len(state) == m.StateSize() {
		copy(next, state)
	}
	next[0]++

	if m.InferFunc != nil {
		p, err := m.InferFunc(frame)
		return p, next, err
	}
	return 0.0, next, nil
}

// StateSize implements Model.
func (m *MockModel) StateSize() int {
	if m.StateLen > 0 {
		return m.StateLen
	}
	return 4
}

// Close implements Model.
func (m *MockModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// InferCallCount returns the number of times Infer was called.
func (m *MockModel) InferCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InferCalls)
}

// Ensure MockModel implements Model at compile time.
var _ Model = (*MockModel)(nil)
