package translation

import (
	"errors"
	"fmt"
)

// Kind identifies a class of translation failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindTranslationFailed
	KindUnsupportedLanguage
	KindWorker
	KindQueueFull
	KindTimeout
	KindCancelled
)

var codes = map[Kind]string{
	KindUnknown:             "TRANSLATION_000",
	KindNotInitialized:      "TRANSLATION_001",
	KindTranslationFailed:   "TRANSLATION_002",
	KindUnsupportedLanguage: "TRANSLATION_003",
	KindWorker:              "TRANSLATION_004",
	KindQueueFull:           "TRANSLATION_005",
	KindTimeout:             "TRANSLATION_006",
	KindCancelled:           "TRANSLATION_007",
}

// String returns the stable code for the kind.
func (k Kind) String() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[KindUnknown]
}

// Error is the typed error for the translation domain.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
	Err     error
}

// Code returns the stable string code, e.g. "TRANSLATION_003".
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

// NewError creates a new translation error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError wraps an underlying error with a translation error kind.
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

// IsKind reports whether err is (or wraps) a translation error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
