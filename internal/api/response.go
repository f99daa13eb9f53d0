package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Admitto/internal/engine"
	"github.com/shaiso/Admitto/internal/service"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// Validation отправляет ошибку 422.
func Validation(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleServiceError преобразует ошибку сервисного слоя в HTTP ответ.
// Возвращает true, если ошибка была и ответ отправлен.
func HandleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, engine.ErrUserNotFound),
		errors.Is(err, engine.ErrStepNotFound),
		errors.Is(err, engine.ErrTaskNotFound):
		NotFound(w, err.Error())

	case errors.Is(err, engine.ErrUserExists),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, engine.ErrDuplicateStepName),
		errors.Is(err, engine.ErrDuplicateTaskName),
		errors.Is(err, engine.ErrAmbiguousSelector),
		errors.Is(err, engine.ErrMissingSelector),
		errors.Is(err, engine.ErrStepInProgress):
		Conflict(w, err.Error())

	case isValidationError(err):
		Validation(w, err.Error())

	default:
		InternalError(w, logger, err)
	}
	return true
}

// isValidationError распознаёт ошибки валидации payload и структуры шагов.
func isValidationError(err error) bool {
	var vErr *engine.ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	return errors.Is(err, engine.ErrMissingField) ||
		errors.Is(err, engine.ErrConditionNotMet) ||
		errors.Is(err, engine.ErrUnknownCondition) ||
		errors.Is(err, engine.ErrInvalidFieldValue) ||
		errors.Is(err, engine.ErrEmptyStepName) ||
		errors.Is(err, engine.ErrEmptyTaskName) ||
		errors.Is(err, engine.ErrIndexOutOfRange) ||
		errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrEmailRequired)
}
