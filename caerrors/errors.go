// Package caerrors содержит классификацию внутренних ошибок сервиса.
// Слои storage и crypts возвращают ошибки этого пакета как есть, движок
// их не перехватывает, а HTTP-слой отображает тип в статус ответа.
package caerrors

import "fmt"

// ErrorType provides a coarse category for CaErrors
type ErrorType int

const (
	InternalServer ErrorType = iota
	NotFound
	Validation
	Crypto
	ResourceExhausted
	Conflict
	NotImplemented
)

// CaError represents internal caserv errors
type CaError struct {
	Type   ErrorType
	Detail string
}

func (ce *CaError) Error() string {
	return ce.Detail
}

// New is a convenience function for creating a new CaError
func New(errType ErrorType, msg string, args ...interface{}) error {
	return &CaError{
		Type:   errType,
		Detail: fmt.Sprintf(msg, args...),
	}
}

// Is is a convenience function for testing the internal type of a CaError
func Is(err error, errType ErrorType) bool {
	cErr, ok := err.(*CaError)
	if !ok {
		return false
	}
	return cErr.Type == errType
}

func NotFoundError(msg string, args ...interface{}) error {
	return New(NotFound, msg, args...)
}

func ValidationError(msg string, args ...interface{}) error {
	return New(Validation, msg, args...)
}

func CryptoError(msg string, args ...interface{}) error {
	return New(Crypto, msg, args...)
}

func ResourceExhaustedError(msg string, args ...interface{}) error {
	return New(ResourceExhausted, msg, args...)
}

func ConflictError(msg string, args ...interface{}) error {
	return New(Conflict, msg, args...)
}

func NotImplementedError(msg string, args ...interface{}) error {
	return New(NotImplemented, msg, args...)
}
