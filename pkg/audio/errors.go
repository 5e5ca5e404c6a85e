package audio

import (
	"errors"
	"fmt"
)

// Kind identifies a class of audio processing failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindEmptyBuffer
	KindAudioTooShort
	KindInvalidSampleRate
	KindInvalidChannelCount
	KindTranscriptionFailed
)

// codes maps each kind to its stable wire code.
var codes = map[Kind]string{
	KindUnknown:             "AUDIO_000",
	KindNotInitialized:      "AUDIO_001",
	KindEmptyBuffer:         "AUDIO_002",
	KindAudioTooShort:       "AUDIO_003",
	KindInvalidSampleRate:   "AUDIO_004",
	KindInvalidChannelCount: "AUDIO_005",
	KindTranscriptionFailed: "AUDIO_006",
}

// String returns the stable code for the kind.
func (k Kind) String() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[KindUnknown]
}

// Error is the typed error for the audio domain. Code is stable across
// releases; Context carries structured details for logging and events.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
	Err     error
}

// Code returns the stable string code, e.g. "AUDIO_004".
func (e *Error) Code() string { return e.Kind.String() }

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code(), e.Message)
	if len(e.Context) > 0 {
		s += fmt.Sprintf(" %v", e.Context)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new audio error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError wraps an underlying error with an audio error kind.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// With attaches a context key/value and returns the error for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsKind reports whether err is (or wraps) an audio error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
