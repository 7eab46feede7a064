package orchestrator

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrNoSession     = errors.New("no demo selected")
	ErrNotReady      = errors.New("demo is still loading")
	ErrStaleSession  = errors.New("session was replaced by a newer selection")
	ErrUnknownEntity = errors.New("unknown entity")
)

// AuthError means no credential is available. The user must log in at
// LoginURL before anything else can happen.
type AuthError struct {
	LoginURL string
}

func (e *AuthError) Error() string {
	if e.LoginURL == "" {
		return ErrAuthRequired.Error()
	}
	return ErrAuthRequired.Error() + ": log in at " + e.LoginURL
}

func (e *AuthError) Unwrap() error { return ErrAuthRequired }

// ExtractionRequestError is a failed completion request. Body is the raw
// response (or the transport error text when Code is 0).
type ExtractionRequestError struct {
	Status string
	Code   int
	Body   string
}

func (e *ExtractionRequestError) Error() string {
	return fmt.Sprintf("extraction request %s: %s", e.Status, e.Body)
}

// ExtractionParseError is a successful response whose content is not the
// expected extraction JSON. Raw is the full response for diagnosis.
type ExtractionParseError struct {
	Err error
	Raw string
}

func (e *ExtractionParseError) Error() string { return "extraction parse: " + e.Err.Error() }

func (e *ExtractionParseError) Unwrap() error { return e.Err }

const (
	KindAuthRequired  = "auth_required"
	KindRequestFailed = "extraction_request_failed"
	KindParseFailed   = "extraction_parse_failed"
	KindLoadFailed    = "load_failed"
)

// ErrorInfo is the user-facing form of a session error.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func describe(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Kind: KindLoadFailed, Message: err.Error()}
	var req *ExtractionRequestError
	var parse *ExtractionParseError
	switch {
	case errors.Is(err, ErrAuthRequired):
		info.Kind = KindAuthRequired
	case errors.As(err, &req):
		info.Kind = KindRequestFailed
		info.Detail = req.Body
	case errors.As(err, &parse):
		info.Kind = KindParseFailed
		info.Message = parse.Err.Error()
		info.Detail = parse.Raw
	}
	return info
}
