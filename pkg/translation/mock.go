package translation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTranslator is a Translator for testing. By default it wraps the input
// as "[tgt] text"; TranslateFunc overrides the behavior.
type MockTranslator struct {
	// TranslateFunc overrides single-shot translation when set.
	TranslateFunc func(ctx context.Context, text string, opts Options) (*Result, error)

	// Delay is applied before every translation, for timeout tests.
	Delay time.Duration

	// InitErr makes Initialize fail.
	InitErr error

	mu          sync.Mutex
	calls       []string
	initialized bool
	closed      bool
}

// Initialize implements Translator.
func (m *MockTranslator) Initialize(ctx context.Context) error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	return nil
}

// Translate implements Translator.
func (m *MockTranslator) Translate(ctx context.Context, text string, opts Options) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, WrapError(KindCancelled, "translation cancelled", ctx.Err())
		}
	}
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, opts)
	}
	return &Result{
		Text:       fmt.Sprintf("[%s] %s", opts.TargetLang, text),
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
	}, nil
}

// TranslateStream implements Translator.
func (m *MockTranslator) TranslateStream(ctx context.Context, text string, opts Options) (<-chan *Result, <-chan error) {
	return streamBySentence(ctx, text, opts, m.Translate)
}

// Close implements Translator.
func (m *MockTranslator) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls returns the texts translated so far.
func (m *MockTranslator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Closed reports whether Close was called.
func (m *MockTranslator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Ensure MockTranslator implements Translator at compile time.
var _ Translator = (*MockTranslator)(nil)
