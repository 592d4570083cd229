package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	ErrNotFound     = errors.New("registro no encontrado")
	ErrInvalidState = errors.New("transición de estado inválida")
	ErrDuplicate    = errors.New("registro duplicado")
	ErrValidation   = errors.New("datos inválidos")
)

// validationError wraps ErrValidation with a field-level message
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error onto ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
