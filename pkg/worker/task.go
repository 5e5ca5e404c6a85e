package worker

import (
	"context"
	"sync"

	"github.com/naturally-translate/voice-bridge/pkg/tts"
)

// TranslateRequest is a translation task payload.
type TranslateRequest struct {
	Text       string
	SourceLang string
	// Streaming is not read by the pool: a task streams sentence by
	// sentence only when it is submitted through Pool.SubmitStream.
	Streaming bool
}

// SynthesizeRequest is a synthesis task payload.
type SynthesizeRequest struct {
	Text              string
	Speed             float64
	Embedding         *tts.SpeakerEmbedding
	FallbackToNeutral bool
}

// Result settles a task future: exactly one of Value or Err.
type Result struct {
	Value interface{}
	Err   error
}

// PartialFunc receives streaming partial results while a task is in
// flight. It is called from the pool's response loop; it must not block.
type PartialFunc func(partial interface{})

// task is one queued or in-flight unit of work. The future channel is
// buffered so the resolver never blocks; resolve fires exactly once.
type task struct {
	id      uint64
	request interface{}
	partial PartialFunc

	ctx    context.Context
	cancel context.CancelFunc

	result chan Result
	done   chan struct{}
	once   sync.Once
}

func newTask(ctx context.Context, id uint64, request interface{}, partial PartialFunc) *task {
	taskCtx, cancel := context.WithCancel(ctx)
	return &task{
		id:      id,
		request: request,
		partial: partial,
		ctx:     taskCtx,
		cancel:  cancel,
		result:  make(chan Result, 1),
		done:    make(chan struct{}),
	}
}

// resolve settles the future once and detaches the abort listener.
func (t *task) resolve(r Result) {
	t.once.Do(func() {
		t.result <- r
		close(t.done)
		t.cancel()
	})
}

// Worker protocol messages. Exactly one message is in flight per worker;
// responses correlate by task id and mismatched ids are dropped.

type messageKind int

const (
	msgInitialize messageKind = iota
	msgExecute
	msgExecuteStream
	msgShutdown
)

type message struct {
	kind    messageKind
	taskID  uint64
	ctx     context.Context
	request interface{}
}

type responseKind int

const (
	respInitialized responseKind = iota
	respCompleted
	respPartial
	respError
	respShutdown
	respDied
)

type response struct {
	kind   responseKind
	taskID uint64
	value  interface{}
	err    error
}
