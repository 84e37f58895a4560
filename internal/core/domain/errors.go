package domain

import (
	"errors"
	"fmt"
)

// ErrSavedSearchNotFound возвращается, когда сохраненный поиск не существует
// ИЛИ принадлежит другому пользователю. Сигнал намеренно один и тот же,
// чтобы не раскрывать факт существования чужих поисков.
var ErrSavedSearchNotFound = errors.New("saved search not found")

// ErrDeliveryRejected - транзиентная ошибка передачи уведомления во внешнюю
// доставку. Поиск остается "due" и будет повторен на следующем тике.
var ErrDeliveryRejected = errors.New("notification delivery rejected")

// ValidationError - ошибка валидации фильтра. Исправляется вызывающей
// стороной (семантика HTTP 400), автоматически не ретраится.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter: field %q: %s", e.Field, e.Reason)
}

// NewValidationError - конструктор для единообразия сообщений.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError - хелпер для проверки на границе REST.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
