// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the FIFO engine, the dispatcher and transports.

package api

import (
	"errors"
	"fmt"
)

// Boundary errors reported by the dispatcher and the device handle.
var (
	ErrNotReady          = errors.New("fifo device not ready")
	ErrBufferTooSmall    = errors.New("output buffer too small")
	ErrNoCapacity        = errors.New("insufficient fifo capacity")
	ErrIO                = errors.New("device i/o failure")
	ErrInvalidRequest    = errors.New("invalid device request")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrPacketTruncated   = errors.New("packet truncated by short read buffer")
)

// ErrorCode is the transport-visible status for a failed command.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeNotReady
	CodeBufferTooSmall
	CodeNoCapacity
	CodeIO
	CodeInvalidRequest
	CodeInvalidArgument
	CodeResourceExhausted
	CodePacketTruncated
	CodeInternal
)

var codeNames = map[ErrorCode]string{
	CodeOK:                "ok",
	CodeNotReady:          "not_ready",
	CodeBufferTooSmall:    "buffer_too_small",
	CodeNoCapacity:        "no_capacity",
	CodeIO:                "io",
	CodeInvalidRequest:    "invalid_request",
	CodeInvalidArgument:   "invalid_argument",
	CodeResourceExhausted: "resource_exhausted",
	CodePacketTruncated:   "packet_truncated",
	CodeInternal:          "internal",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrNotReady, CodeNotReady},
	{ErrBufferTooSmall, CodeBufferTooSmall},
	{ErrNoCapacity, CodeNoCapacity},
	{ErrIO, CodeIO},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrResourceExhausted, CodeResourceExhausted},
	{ErrPacketTruncated, CodePacketTruncated},
}

// Error represents a structured error with code, operation and context.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Context map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped sentinel or OS error.
func (e *Error) Unwrap() error { return e.cause }

// Wrap attaches op to err. The code is taken from the first known sentinel
// found in the chain, CodeInternal otherwise.
func Wrap(op string, err error) *Error {
	return &Error{
		Code:    CodeOf(err),
		Op:      op,
		Context: make(map[string]any),
		cause:   err,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf maps err onto the transport status code space.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return CodeInternal
}
