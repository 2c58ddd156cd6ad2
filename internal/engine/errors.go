package engine

import "github.com/flowmind/flowmind/internal/domain"

// Error — ошибка движка с явным кодом.
//
// Коды ошибок — часть внешнего контракта (domain.ErrorCode); ошибка
// возвращается значением, а не паникой, чтобы обработка была проверяемой.
type Error struct {
	// Code — стабильный код ошибки.
	Code domain.ErrorCode

	// Message — описание ошибки.
	Message string
}

// Error реализует интерфейс error. Формат: "[CODE] message".
func (e *Error) Error() string {
	return "[" + string(e.Code) + "] " + e.Message
}

// NewError создаёт ошибку движка.
func NewError(code domain.ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf возвращает код ошибки движка либо fallback для посторонних ошибок.
func CodeOf(err error, fallback domain.ErrorCode) domain.ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return fallback
}
