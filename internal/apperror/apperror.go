// Package apperror defines the application's error taxonomy.
//
// Every error that should reach a client carries a Code (machine readable,
// stable across REST and socket transports) and a Message (human readable).
// The wrapped sentinel decides how a transport classifies it: the REST layer
// maps sentinels to HTTP statuses with errors.Is, the socket layer forwards
// only the Message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPersistence     = errors.New("persistence failure")
)

// Code identifies an error kind independently of the transport.
type Code string

const (
	CodeUnauthenticated       Code = "unauthenticated"
	CodeInvalidToken          Code = "invalid_token"
	CodeUserNotFound          Code = "user_not_found"
	CodeInvalidContent        Code = "invalid_content"
	CodeInvalidReceiver       Code = "invalid_receiver"
	CodeSelfMessageNotAllowed Code = "self_message_not_allowed"
	CodeInvalidMessageID      Code = "invalid_message_id"
	CodeAuthorization         Code = "authorization_error"
	CodeNotReceiver           Code = "not_receiver"
	CodeNotFound              Code = "not_found"
	CodePersistence           Code = "persistence_error"
	CodeValidation            Code = "validation_error"
	CodeConflict              Code = "conflict"
	CodeForbidden             Code = "forbidden"
)

type AppError struct {
	Err     error  // sentinel used for classification
	Code    Code   // stable error kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-supplied message.
func NotFoundMessage(message string) *AppError {
	return &AppError{Err: ErrNotFound, Code: CodeNotFound, Message: message}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// Authentication failures. All three map to 401.

func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeUnauthenticated,
		Message: "Authentication error: Token not provided",
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeInvalidToken,
		Message: "Authentication error: Invalid token",
	}
}

func UserNotFound() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeUserNotFound,
		Message: "Authentication error: User not found",
	}
}

// Messaging protocol errors.

func InvalidContent() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidContent,
		Field:   "content",
		Message: "Message content must be a non-empty string.",
	}
}

func InvalidReceiver() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidReceiver,
		Field:   "receiverId",
		Message: "Valid receiver ID is required.",
	}
}

func SelfMessageNotAllowed() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeSelfMessageNotAllowed,
		Field:   "receiverId",
		Message: "Cannot send message to yourself.",
	}
}

func InvalidMessageID() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidMessageID,
		Field:   "messageId",
		Message: "Invalid message ID for marking as read.",
	}
}

func AuthorizationMismatch() *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeAuthorization,
		Message: "Authorization error: Reader ID is invalid or does not match authenticated user.",
	}
}

func NotReceiver() *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeNotReceiver,
		Message: "Cannot mark this message as read: you are not the receiver.",
	}
}

// Persistence wraps a store failure. message is what the client sees;
// cause stays server-side and is reachable through Unwrap chains only via
// the logger, never through Message.
func Persistence(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrPersistence, cause),
		Code:    CodePersistence,
		Message: message,
	}
}
