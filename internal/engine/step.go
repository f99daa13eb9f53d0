package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/Admitto/internal/domain"
)

// Step — именованный этап анкеты, контейнер задач.
//
// Порядок задач — порядок вставки; он определяет порядок обхода,
// но не жёсткий порядок выполнения: задачи шага можно сдавать
// в любом порядке. Статус шага никогда не хранится — он выводится
// из статусов задач при каждом запросе.
type Step struct {
	// Name — имя шага, уникально внутри анкеты.
	Name string `json:"step_name"`

	// Index — позиция шага в анкете. Уникален в каждый момент
	// времени; после удалений допускаются разрывы нумерации.
	Index int `json:"index"`

	// Tasks — задачи шага в порядке вставки.
	Tasks []*Task `json:"tasks"`
}

// FindTask возвращает задачу по имени.
func (s *Step) FindTask(name string) (*Task, error) {
	for _, t := range s.Tasks {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
}

// CompleteTask выполняет одну задачу шага.
func (s *Step) CompleteTask(name string, payload map[string]any, conds *Conditions) error {
	task, err := s.FindTask(name)
	if err != nil {
		return err
	}
	return s.named(task.Complete(payload, conds))
}

// CompleteAll выполняет задачи шага по payload вида имя задачи → поля.
//
// Семантика «всё или ничего»: сначала проверяются все записи
// (существование задач, обязательные поля, условия), и только если
// все проверки прошли — изменения применяются. Любая ошибка
// оставляет шаг нетронутым.
//
// Каждая ещё не выполненная задача обязана присутствовать в payload,
// поэтому успешный CompleteAll всегда делает шаг выполненным.
// Уже выполненные задачи можно опустить; упоминание перевыполняет их.
func (s *Step) CompleteAll(stepPayload map[string]map[string]any, conds *Conditions) error {
	known := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		known[t.Name] = true
	}

	var unknown []string
	for name := range stepPayload {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %q", ErrTaskNotFound, unknown[0])
	}

	// Фаза 1: проверка без изменений.
	for _, t := range s.Tasks {
		payload, ok := stepPayload[t.Name]
		if !ok {
			if !t.Status.IsCompleted() {
				return NewValidationError(s.Name, t.Name, "",
					"missing payload for task '"+t.Name+"'", ErrMissingField)
			}
			continue
		}
		if err := t.check(payload, conds); err != nil {
			return s.named(err)
		}
	}

	// Фаза 2: применение.
	for _, t := range s.Tasks {
		if payload, ok := stepPayload[t.Name]; ok {
			t.apply(payload)
		}
	}

	return nil
}

// Status вычисляет статус шага из статусов задач.
func (s *Step) Status() domain.StepStatus {
	for _, t := range s.Tasks {
		if !t.Status.IsCompleted() {
			return domain.StepStatusNotCompleted
		}
	}
	return domain.StepStatusCompleted
}

// CurrentTask возвращает первую невыполненную задачу шага
// (в порядке вставки) или nil, если шаг выполнен.
func (s *Step) CurrentTask() *Task {
	for _, t := range s.Tasks {
		if !t.Status.IsCompleted() {
			return t
		}
	}
	return nil
}

// named дополняет ValidationError именем шага, если задача его не знала.
func (s *Step) named(err error) error {
	if vErr, ok := err.(*ValidationError); ok && vErr.Step == "" {
		vErr.Step = s.Name
	}
	return err
}

// validateTasks проверяет набор задач для нового или заменяемого шага:
// непустые уникальные имена, известные условия.
func validateTasks(tasks []*Task, conds *Conditions) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return NewValidationError("", "", "task_name",
				"Task name cannot be empty", ErrEmptyTaskName)
		}
		if seen[t.Name] {
			return NewValidationError("", t.Name, "task_name",
				"Duplicate task names are not allowed", ErrDuplicateTaskName)
		}
		seen[t.Name] = true

		if t.Condition != nil {
			if t.Condition.Var == "" {
				return NewValidationError("", t.Name, "condition",
					"condition var is required", ErrConditionNotMet)
			}
			if !conds.Has(t.Condition.Name) {
				return NewValidationError("", t.Name, "condition",
					"unknown condition '"+t.Condition.Name+"'", ErrUnknownCondition)
			}
		}
	}
	return nil
}
