package database

import "errors"

var (
	// ErrNotFound: запрошенной записи нет. Отличается от отказа
	// хранилища, который всплывает как ошибка драйвера.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate: нарушено ограничение уникальности.
	ErrDuplicate = errors.New("record already exists")

	// ErrInvalidTransition: запрошенный переход статуса недопустим.
	ErrInvalidTransition = errors.New("illegal status transition")
)
