package worker

import (
	"context"

	"github.com/naturally-translate/voice-bridge/pkg/translation"
	"github.com/naturally-translate/voice-bridge/pkg/tts"
)

// Executor is the work backend a worker goroutine owns exclusively: one
// translator or one synthesis client bound to its language. Executors are
// only ever driven by their worker, one task at a time.
type Executor interface {
	// Initialize prepares the backend.
	Initialize(ctx context.Context) error

	// Execute runs one task to completion.
	Execute(ctx context.Context, request interface{}) (interface{}, error)

	// ExecuteStream runs one streaming task, delivering partials through
	// the callback before returning the final value.
	ExecuteStream(ctx context.Context, request interface{}, partial func(interface{})) (interface{}, error)

	// Close releases backend resources.
	Close() error
}

// ExecutorFactory builds a fresh executor for a language. Called at pool
// initialization and again on worker restart.
type ExecutorFactory func(lang string) (Executor, error)

// TranslateExecutor hosts one Translator bound to a target language.
type TranslateExecutor struct {
	Translator translation.Translator
	TargetLang string
}

// Initialize implements Executor.
func (e *TranslateExecutor) Initialize(ctx context.Context) error {
	return e.Translator.Initialize(ctx)
}

// Execute implements Executor.
func (e *TranslateExecutor) Execute(ctx context.Context, request interface{}) (interface{}, error) {
	req, ok := request.(TranslateRequest)
	if !ok {
		return nil, translation.NewError(translation.KindWorker, "unexpected request type for translate worker")
	}
	return e.Translator.Translate(ctx, req.Text, translation.Options{
		SourceLang: req.SourceLang,
		TargetLang: e.TargetLang,
	})
}

// ExecuteStream implements Executor via sentence streaming.
func (e *TranslateExecutor) ExecuteStream(ctx context.Context, request interface{}, partial func(interface{})) (interface{}, error) {
	req, ok := request.(TranslateRequest)
	if !ok {
		return nil, translation.NewError(translation.KindWorker, "unexpected request type for translate worker")
	}

	results, errs := e.Translator.TranslateStream(ctx, req.Text, translation.Options{
		SourceLang: req.SourceLang,
		TargetLang: e.TargetLang,
	})

	var final *translation.Result
	for results != nil || errs != nil {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if r.IsPartial {
				partial(r)
			} else {
				final = r
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, translation.WrapError(translation.KindCancelled, "translation stream cancelled", ctx.Err())
		}
	}
	if final == nil {
		return nil, translation.NewError(translation.KindTranslationFailed, "translation stream ended without a final result")
	}
	return final, nil
}

// Close implements Executor.
func (e *TranslateExecutor) Close() error {
	return e.Translator.Close()
}

// SynthesizeExecutor hosts one synthesis client bound to a language.
type SynthesizeExecutor struct {
	Client   *tts.Client
	Language string
}

// Initialize implements Executor. The client is stateless; a health probe
// would race service startup, so initialization is a no-op.
func (e *SynthesizeExecutor) Initialize(ctx context.Context) error { return nil }

// Execute implements Executor.
func (e *SynthesizeExecutor) Execute(ctx context.Context, request interface{}) (interface{}, error) {
	req, ok := request.(SynthesizeRequest)
	if !ok {
		return nil, tts.NewError(tts.KindWorker, "unexpected request type for synthesis worker")
	}
	return e.Client.Synthesize(ctx, tts.SynthesizeRequest{
		Text:              req.Text,
		Language:          e.Language,
		Speed:             req.Speed,
		Embedding:         req.Embedding,
		FallbackToNeutral: req.FallbackToNeutral,
	})
}

// ExecuteStream implements Executor. Synthesis has no streaming form.
func (e *SynthesizeExecutor) ExecuteStream(ctx context.Context, request interface{}, partial func(interface{})) (interface{}, error) {
	return nil, tts.NewError(tts.KindWorker, "synthesis does not support streaming tasks")
}

// Close implements Executor.
func (e *SynthesizeExecutor) Close() error { return nil }
