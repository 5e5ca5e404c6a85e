package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelDefault(t *testing.T) {
	m := NewMockModel()
	prob, next, err := m.Infer(make([]float32, FrameSize), nil)
	require.NoError(t, err)
	assert.Equal(t, float32(0), prob)
	assert.Len(t, next, m.StateSize())
	assert.Equal(t, 1, m.InferCallCount())
}

func TestMockModelFixedProb(t *testing.T) {
	m := NewMockModelWithProb(0.8)
	for i := 0; i < 3; i++ {
		prob, _, err := m.Infer(make([]float32, FrameSize), nil)
		require.NoError(t, err)
		assert.Equal(t, float32(0.8), prob)
	}
	assert.Equal(t, 3, m.InferCallCount())
}

func TestMockModelSequenceCycles(t *testing.T) {
	m := NewMockModelWithSequence([]float32{0.1, 0.9})
	want := []float32{0.1, 0.9, 0.1, 0.9}
	for i, w := range want {
		prob, _, err := m.Infer(make([]float32, FrameSize), nil)
		require.NoError(t, err)
		assert.Equal(t, w, prob, "call %d", i)
	}
}

func TestMockModelRecordsFrames(t *testing.T) {
	m := NewMockModel()
	frame := make([]float32, FrameSize)
	frame[0] = 0.5
	m.Infer(frame, nil)

	// The recorded frame is a copy.
	frame[0] = -1
	assert.Equal(t, float32(0.5), m.InferCalls[0][0])
}

func TestMockModelClose(t *testing.T) {
	m := NewMockModel()
	require.NoError(t, m.Close())
	assert.True(t, m.CloseCalled)
}
