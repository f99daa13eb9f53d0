package service

import "errors"

// Ошибки сервисного слоя.
var (
	// ErrEmailRequired — email не указан.
	ErrEmailRequired = errors.New("email is required")

	// ErrInvalidEmail — email не проходит проверку формата.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmailExists — email уже занят другим пользователем.
	ErrEmailExists = errors.New("email already exists")
)
