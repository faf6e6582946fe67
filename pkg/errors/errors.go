package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Messages are user facing (pt-BR).
var (
	ErrInvalidCredentials   = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "e-mail ou senha inválidos")
	ErrInactiveAccount      = New("ACCOUNT_INACTIVE", http.StatusForbidden, "conta inativa")
	ErrPendingAuthorization = New("ACCOUNT_PENDING", http.StatusForbidden, "cadastro aguardando autorização")
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "recurso não encontrado")
	ErrForbidden            = New("FORBIDDEN", http.StatusForbidden, "acesso negado")
	ErrUnauthorized         = New("UNAUTHORIZED", http.StatusUnauthorized, "não autenticado")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "conflito")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "dados inválidos")
	ErrPastAction           = New("PAST_ACTION", http.StatusBadRequest, "o horário do agendamento já passou")
	ErrTooManyRequests      = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "muitas requisições, tente novamente em instantes")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "erro interno")
)

// ErrCacheMiss signals a missing cache entry. It never reaches HTTP clients.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation is shorthand for a 400 wrapping the underlying cause.
func Validation(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}

// Internal is shorthand for a 500 wrapping the underlying cause.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
