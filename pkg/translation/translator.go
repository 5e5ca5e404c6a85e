// Package translation provides text translation with single-shot and
// sentence-streaming modes over pluggable backends.
//
// The streaming mode splits input into sentences and translates them one
// by one, yielding the accumulated translation after each so downstream
// synthesis can start before the full text is done.
package translation

import (
	"context"
	"strings"
)

// Options selects the language pair for one call.
type Options struct {
	SourceLang string
	TargetLang string
}

// Result is one translation result. Streaming results accumulate: each
// partial carries everything translated so far.
type Result struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	IsPartial  bool   `json:"is_partial"`
}

// Translator is the translation backend contract.
type Translator interface {
	// Initialize prepares the backend (client construction, warmup).
	Initialize(ctx context.Context) error

	// Translate translates text in one shot.
	Translate(ctx context.Context, text string, opts Options) (*Result, error)

	// TranslateStream translates sentence by sentence, yielding accumulated
	// partials and a final result. Errors arrive on the second channel;
	// both channels close when the stream ends.
	TranslateStream(ctx context.Context, text string, opts Options) (<-chan *Result, <-chan error)

	// Close releases backend resources.
	Close() error
}

// streamBySentence implements the sentence-streaming contract on top of a
// single-shot translate function. With one sentence or fewer it falls back
// to a single final result.
func streamBySentence(
	ctx context.Context,
	text string,
	opts Options,
	single func(ctx context.Context, text string, opts Options) (*Result, error),
) (<-chan *Result, <-chan error) {
	results := make(chan *Result, 4)
	errs := make(chan error, 1)

	go func() {
		defer close(results)
		defer close(errs)

		sentences := SplitSentences(text)
		if len(sentences) <= 1 {
			r, err := single(ctx, text, opts)
			if err != nil {
				errs <- err
				return
			}
			r.IsPartial = false
			deliverResult(ctx, results, r)
			return
		}

		var accumulated strings.Builder
		for i, sentence := range sentences {
			r, err := single(ctx, sentence, opts)
			if err != nil {
				errs <- err
				return
			}
			if accumulated.Len() > 0 {
				accumulated.WriteString(" ")
			}
			accumulated.WriteString(r.Text)

			out := &Result{
				Text:       accumulated.String(),
				SourceLang: r.SourceLang,
				TargetLang: r.TargetLang,
				IsPartial:  i < len(sentences)-1,
			}
			if !deliverResult(ctx, results, out) {
				return
			}
		}
	}()

	return results, errs
}

func deliverResult(ctx context.Context, results chan<- *Result, r *Result) bool {
	select {
	case results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
