package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ServiceError so transports can map it to a status
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindUnauthorized
	KindInsufficientBalance
	KindConflict
)

// ServiceError is a caller-facing failure of a domain operation
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Is matches another ServiceError by kind and code, so sentinel errors work with errors.Is
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

var (
	ErrInsufficientBalance = &ServiceError{Kind: KindInsufficientBalance, Code: "INSUFFICIENT_POINTS", Message: "Not enough Consultation Points to book"}
	ErrNotParticipant      = &ServiceError{Kind: KindUnauthorized, Code: "FORBIDDEN", Message: "Not authorized for this consultation"}
	ErrInvalidCredentials  = &ServiceError{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
)

func validationError(code, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

func forbiddenError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Code: "FORBIDDEN", Message: message}
}

func conflictError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Code: code, Message: message}
}

// AsServiceError unwraps err into a ServiceError if it carries one
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
