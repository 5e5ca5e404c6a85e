package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, SessionCreated, s.State())

	require.NoError(t, s.Start())
	assert.Equal(t, SessionActive, s.State())

	require.NoError(t, s.Pause())
	assert.Equal(t, SessionPaused, s.State())

	require.NoError(t, s.Resume())
	assert.Equal(t, SessionActive, s.State())

	require.NoError(t, s.Complete())
	assert.Equal(t, SessionCompleted, s.State())
}

func TestSessionTerminalRejectsWork(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start())
	require.NoError(t, s.Complete())

	assert.Error(t, s.Start())
	assert.Error(t, s.Pause())
	assert.Error(t, s.Fail())

	f := NewSession()
	require.NoError(t, f.Fail())
	assert.Equal(t, SessionError, f.State())
	assert.Error(t, f.Start())
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := NewSession()

	// Cannot pause or resume before starting.
	err := s.Pause()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidInput))
	assert.Error(t, s.Resume())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start rejected")
	assert.Error(t, s.Resume(), "resume only from paused")
}
