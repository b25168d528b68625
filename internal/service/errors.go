package service

import (
	"errors"
	"fmt"
)

// ErrorCode names one entry of the core's error taxonomy.
type ErrorCode string

const (
	ErrInvalidInput         ErrorCode = "InvalidInput"
	ErrChunkExplosion       ErrorCode = "ChunkExplosion"
	ErrInvalidChunk         ErrorCode = "InvalidChunk"
	ErrUpstreamTimeout      ErrorCode = "UpstreamTimeout"
	ErrUpstreamModelError   ErrorCode = "UpstreamModelError"
	ErrUpstreamModelInvalid ErrorCode = "UpstreamModelInvalid"
	ErrUpstreamVectorError  ErrorCode = "UpstreamVectorError"
	ErrAnswerError          ErrorCode = "AnswerError"
)

// CoreError is the structured error type surfaced by the core pipeline.
// Retriable distinguishes transient backend failures (safe for the caller
// to retry at request granularity) from permanent ones.
//
// GuardrailRefusal is deliberately not represented here: a severe verdict
// is a normal, user-visible response, not an error path.
type CoreError struct {
	Code      ErrorCode
	Message   string
	Retriable bool
	Cause     error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Cause }

func NewInvalidInput(message string) *CoreError {
	return &CoreError{Code: ErrInvalidInput, Message: message, Retriable: false}
}

func NewChunkExplosion(message string) *CoreError {
	return &CoreError{Code: ErrChunkExplosion, Message: message, Retriable: false}
}

func NewInvalidChunk(message string) *CoreError {
	return &CoreError{Code: ErrInvalidChunk, Message: message, Retriable: false}
}

func NewUpstreamTimeout(cause error) *CoreError {
	return &CoreError{Code: ErrUpstreamTimeout, Message: "upstream call exceeded its deadline", Retriable: true, Cause: cause}
}

func NewUpstreamModelError(cause error) *CoreError {
	return &CoreError{Code: ErrUpstreamModelError, Message: "model provider call failed", Retriable: true, Cause: cause}
}

func NewUpstreamModelInvalid(cause error) *CoreError {
	return &CoreError{Code: ErrUpstreamModelInvalid, Message: "model provider rejected the request", Retriable: false, Cause: cause}
}

func NewUpstreamVectorError(cause error) *CoreError {
	return &CoreError{Code: ErrUpstreamVectorError, Message: "vector backend call failed", Retriable: true, Cause: cause}
}

func NewAnswerError(cause error) *CoreError {
	return &CoreError{Code: ErrAnswerError, Message: "answer pipeline failed", Retriable: false, Cause: cause}
}

// AsCoreError unwraps err looking for a *CoreError, matching the teacher's
// convention of inspecting a typed error at the boundary that reports it.
func AsCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	ok := errors.As(err, &ce)
	return ce, ok
}
