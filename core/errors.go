package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

const NoticeInfo = "info"

// Notice is a non-fatal, user-facing message raised by a sub-step of a
// larger operation (e.g. a failed file upload during a payroll save).
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func InfoNotice(msg string) Notice { return Notice{Level: NoticeInfo, Message: msg} }

type shutdown struct {
	message string
}

// NewShutdownError returns an error that signals the API server to initiate
// a graceful shutdown.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
