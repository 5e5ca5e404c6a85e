package pipeline

import (
	"errors"
	"fmt"
)

// Kind identifies a class of pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindShutdown
	KindLanguageProcessing
	KindStageFailed
	KindThresholdExceeded
	KindInvalidInput
)

var codes = map[Kind]string{
	KindUnknown:            "PIPELINE_000",
	KindNotInitialized:     "PIPELINE_001",
	KindShutdown:           "PIPELINE_002",
	KindLanguageProcessing: "PIPELINE_003",
	KindStageFailed:        "PIPELINE_004",
	KindThresholdExceeded:  "PIPELINE_005",
	KindInvalidInput:       "PIPELINE_006",
}

// String returns the stable code for the kind.
func (k Kind) String() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[KindUnknown]
}

// Error is the typed error for the pipeline domain.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
	Err     error
}

// Code returns the stable string code, e.g. "PIPELINE_004".
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

// NewError creates a new pipeline error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError wraps an underlying error with a pipeline error kind.
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

// IsKind reports whether err is (or wraps) a pipeline error of the given
// kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// errorCode extracts the stable code from any domain error, or "".
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
