package worker

import (
	"time"

	"github.com/naturally-translate/voice-bridge/pkg/translation"
	"github.com/naturally-translate/voice-bridge/pkg/tts"
)

// ErrorFactory builds the pool's typed errors, so a translation pool fails
// with TRANSLATION_* codes and a synthesis pool with TTS_* codes.
type ErrorFactory interface {
	NotInitialized(msg string) error
	Worker(lang, msg string, cause error) error
	QueueFull(lang string, max int) error
	Timeout(lang string, timeout time.Duration) error
	Cancelled(lang, msg string) error
}

// TranslationErrors is the ErrorFactory for translation pools.
type TranslationErrors struct{}

func (TranslationErrors) NotInitialized(msg string) error {
	return translation.NewError(translation.KindNotInitialized, msg)
}

func (TranslationErrors) Worker(lang, msg string, cause error) error {
	return translation.WrapError(translation.KindWorker, msg, cause).
		With("target_language", lang)
}

func (TranslationErrors) QueueFull(lang string, max int) error {
	return translation.NewError(translation.KindQueueFull, "translation queue is full").
		With("target_language", lang).
		With("max_queue_size", max)
}

func (TranslationErrors) Timeout(lang string, timeout time.Duration) error {
	return translation.NewError(translation.KindTimeout, "translation task timed out").
		With("target_language", lang).
		With("timeout_ms", timeout.Milliseconds())
}

func (TranslationErrors) Cancelled(lang, msg string) error {
	return translation.NewError(translation.KindCancelled, msg).
		With("target_language", lang)
}

// TTSErrors is the ErrorFactory for synthesis pools.
type TTSErrors struct{}

func (TTSErrors) NotInitialized(msg string) error {
	return tts.NewError(tts.KindNotInitialized, msg)
}

func (TTSErrors) Worker(lang, msg string, cause error) error {
	return tts.WrapError(tts.KindWorker, msg, cause).
		With("target_language", lang)
}

func (TTSErrors) QueueFull(lang string, max int) error {
	return tts.NewError(tts.KindQueueFull, "synthesis queue is full").
		With("target_language", lang).
		With("max_queue_size", max)
}

func (TTSErrors) Timeout(lang string, timeout time.Duration) error {
	return tts.NewError(tts.KindTimeout, "synthesis task timed out").
		With("target_language", lang).
		With("timeout_ms", timeout.Milliseconds())
}

func (TTSErrors) Cancelled(lang, msg string) error {
	return tts.NewError(tts.KindCancelled, msg).
		With("target_language", lang)
}
