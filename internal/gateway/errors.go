package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a gateway request failed.
type Kind string

const (
	// KindDecoding means the client sent a payload that could not be decoded.
	KindDecoding Kind = "decoding_error"
	// KindQuery means the engine rejected or failed the statement.
	KindQuery Kind = "query_error"
	// KindForbidden means the statement was refused by the gateway policy.
	KindForbidden Kind = "forbidden"
	// KindInternal covers every other failure.
	KindInternal Kind = "internal_error"
)

// Error is returned by Decode, DecodeParams and Executor.Execute.
type Error struct {
	Kind    Kind
	Message string
	// Code is the engine error code for query errors, when the driver reports one.
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindInternal
}

func decodingError(msg string, err error) *Error {
	return &Error{Kind: KindDecoding, Message: msg, Err: err}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
