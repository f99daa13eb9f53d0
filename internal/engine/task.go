package engine

import (
	"maps"

	"github.com/shaiso/Admitto/internal/domain"
)

// Task — минимальная выполняемая единица анкеты.
//
// Задача выполняется, когда кандидат сдаёт payload со всеми
// обязательными полями и (если задано условие) значение поля
// Condition.Var проходит предикат. Повторное выполнение разрешено:
// payload перезаписывается, проверки выполняются заново.
type Task struct {
	// Name — имя задачи, уникально внутри шага.
	Name string `json:"task_name"`

	// RequiredFields — поля, обязательные в payload при выполнении.
	RequiredFields []string `json:"required_fields,omitempty"`

	// Condition — необязательное условие выполнения.
	Condition *Condition `json:"condition,omitempty"`

	// Status — текущий статус задачи.
	Status domain.TaskStatus `json:"status"`

	// Payload — данные, сданные при выполнении. Заполняется только
	// при переходе в Completed; при повторном выполнении заменяется
	// целиком (последняя сдача побеждает).
	Payload map[string]any `json:"payload,omitempty"`
}

// NewTask создаёт невыполненную задачу.
func NewTask(name string, requiredFields []string, cond *Condition) *Task {
	return &Task{
		Name:           name,
		RequiredFields: requiredFields,
		Condition:      cond,
		Status:         domain.TaskStatusNotCompleted,
	}
}

// Complete выполняет задачу: проверяет payload и, если все проверки
// прошли, сохраняет его и переводит задачу в Completed.
//
// Выполненную задачу можно выполнить повторно — payload будет
// перезаписан, проверки выполнены заново. Инвариант: Completed
// означает, что все RequiredFields присутствовали в payload и
// условие (если есть) держалось в момент выполнения.
func (t *Task) Complete(payload map[string]any, conds *Conditions) error {
	if err := t.check(payload, conds); err != nil {
		return err
	}
	t.apply(payload)
	return nil
}

// check проверяет payload, не меняя задачу.
// Используется двухфазным Step.CompleteAll: сначала проверить всё,
// потом применить всё.
func (t *Task) check(payload map[string]any, conds *Conditions) error {
	var missing []string
	for _, field := range t.RequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return NewMissingFieldsError("", t.Name, missing)
	}

	if t.Condition != nil {
		value, ok := payload[t.Condition.Var]
		if !ok {
			return NewValidationError("", t.Name, t.Condition.Var,
				"condition variable '"+t.Condition.Var+"' is missing", ErrConditionNotMet)
		}

		pred, ok := conds.Get(t.Condition.Name)
		if !ok {
			return NewValidationError("", t.Name, t.Condition.Var,
				"unknown condition '"+t.Condition.Name+"'", ErrUnknownCondition)
		}

		if !pred(value) {
			return NewValidationError("", t.Name, t.Condition.Var,
				"Condition failed", ErrConditionNotMet)
		}
	}

	return nil
}

// apply сохраняет payload и помечает задачу выполненной.
// Вызывается только после успешного check.
func (t *Task) apply(payload map[string]any) {
	t.Payload = maps.Clone(payload)
	t.Status = domain.TaskStatusCompleted
}
