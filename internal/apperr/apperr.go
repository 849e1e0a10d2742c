package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrPasswordRequired  = errors.New("password required")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUpstream          = errors.New("upstream failure")
)

// Error 业务错误统一载体，handler 层据此映射 HTTP 状态码
type Error struct {
	Err       error
	Message   string
	Field     string // 可选：校验失败的字段
	ClassName string // 仅 PasswordRequired 携带，供客户端弹密码框
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Invalid(field, message string) *Error {
	return &Error{Err: ErrInvalidInput, Message: message, Field: field}
}

func Unauthorized(message string) *Error {
	return &Error{Err: ErrUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Err: ErrForbidden, Message: message}
}

func NotFound(resource string) *Error {
	return &Error{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string) *Error {
	return &Error{Err: ErrConflict, Message: message}
}

// PasswordRequired 私有班级未携带密码，带上班级名方便客户端提示
func PasswordRequired(className string) *Error {
	return &Error{
		Err:       ErrPasswordRequired,
		Message:   "Password required for private class",
		ClassName: className,
	}
}

func IncorrectPassword() *Error {
	return &Error{Err: ErrIncorrectPassword, Message: "Incorrect password"}
}

// Upstream 外部依赖（Google Drive / Photos 等）失败
func Upstream(message string, cause error) *Error {
	if cause == nil {
		return &Error{Err: ErrUpstream, Message: message}
	}
	return &Error{Err: fmt.Errorf("%w: %w", ErrUpstream, cause), Message: message}
}

// HTTPStatus 错误到状态码的唯一映射点
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrIncorrectPassword):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
