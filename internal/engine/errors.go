package engine

import (
	"errors"
	"strings"
)

// Ошибки реестра анкет.
var (
	// ErrUserNotFound — для пользователя нет анкеты.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists — анкета пользователя уже создана.
	ErrUserExists = errors.New("user already exists")
)

// Ошибки структуры анкеты.
var (
	// ErrFlowComplete — все шаги выполнены, текущего шага нет.
	ErrFlowComplete = errors.New("flow is complete")

	// ErrStepNotFound — шаг с таким именем или индексом отсутствует.
	ErrStepNotFound = errors.New("step not found")

	// ErrTaskNotFound — задача с таким именем отсутствует в шаге.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateStepName — шаг с таким именем уже есть в анкете.
	ErrDuplicateStepName = errors.New("step name already exists")

	// ErrDuplicateTaskName — несколько задач с одинаковым именем.
	ErrDuplicateTaskName = errors.New("duplicate task name")

	// ErrEmptyStepName — имя шага пустое.
	ErrEmptyStepName = errors.New("step name is empty")

	// ErrEmptyTaskName — имя задачи пустое.
	ErrEmptyTaskName = errors.New("task name is empty")

	// ErrAmbiguousSelector — заданы и имя шага, и индекс.
	ErrAmbiguousSelector = errors.New("both step name and index given")

	// ErrMissingSelector — не задано ни имя шага, ни индекс.
	ErrMissingSelector = errors.New("neither step name nor index given")

	// ErrIndexOutOfRange — отрицательный индекс шага.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrStepInProgress — попытка удалить текущий (проходимый) шаг.
	ErrStepInProgress = errors.New("cannot remove an in-progress step")
)

// Ошибки выполнения задач.
var (
	// ErrMissingField — в payload нет обязательного поля.
	ErrMissingField = errors.New("missing required field")

	// ErrConditionNotMet — условие задачи не выполнено.
	ErrConditionNotMet = errors.New("condition not met")

	// ErrUnknownCondition — условие с таким именем не зарегистрировано.
	ErrUnknownCondition = errors.New("unknown condition")

	// ErrInvalidFieldValue — значение поля не прошло проверку формата.
	// Сама проверка форматов живёт в сервисном слое, движок хранит
	// только sentinel для единой классификации ошибок.
	ErrInvalidFieldValue = errors.New("invalid field value")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Step    string // имя шага, где произошла ошибка
	Task    string // имя задачи, вызвавшей ошибку
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	switch {
	case e.Step != "" && e.Task != "":
		return "step " + e.Step + ", task " + e.Task + ": " + e.Message
	case e.Step != "":
		return "step " + e.Step + ": " + e.Message
	case e.Task != "":
		return "task " + e.Task + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(step, task, field, message string, err error) *ValidationError {
	return &ValidationError{
		Step:    step,
		Task:    task,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// NewMissingFieldsError — ошибка про отсутствующие обязательные поля payload.
// Поле ошибки — первое из отсутствующих, сообщение перечисляет все.
func NewMissingFieldsError(step, task string, missing []string) *ValidationError {
	return NewValidationError(step, task, missing[0],
		"missing required fields: "+strings.Join(missing, ", "), ErrMissingField)
}
