package domain

// TaskStatus — статус выполнения задачи анкеты.
//
// Жизненный цикл:
//
//	NOT_COMPLETED → COMPLETED
//
// Переход единственный и одностороний, но повторный Complete с новым
// payload разрешён (исправление уже сданных данных).
type TaskStatus string

const (
	// TaskStatusNotCompleted — задача ещё не выполнена пользователем.
	TaskStatusNotCompleted TaskStatus = "not completed"

	// TaskStatusCompleted — задача выполнена, payload сохранён.
	TaskStatusCompleted TaskStatus = "completed"
)

// IsCompleted возвращает true, если задача выполнена.
func (s TaskStatus) IsCompleted() bool {
	return s == TaskStatusCompleted
}

// StepStatus — статус шага. Никогда не хранится: всегда вычисляется
// из статусов задач шага.
//
//	COMPLETED     — все задачи шага выполнены
//	NOT_COMPLETED — хотя бы одна задача не выполнена
type StepStatus string

const (
	// StepStatusNotCompleted — в шаге есть невыполненные задачи.
	StepStatusNotCompleted StepStatus = "not completed"

	// StepStatusCompleted — все задачи шага выполнены.
	StepStatusCompleted StepStatus = "completed"
)

// IsCompleted возвращает true, если шаг полностью выполнен.
func (s StepStatus) IsCompleted() bool {
	return s == StepStatusCompleted
}

// FlowStatus — сводный статус прохождения анкеты пользователем.
// Как и StepStatus, вычисляется на каждый запрос, а не хранится.
//
// Жизненный цикл:
//
//	Not Started → In Progress → Completed
//	(может вернуться в In Progress после add_step/modify_step)
type FlowStatus string

const (
	// FlowStatusNotStarted — ни одна задача ещё не выполнена.
	FlowStatusNotStarted FlowStatus = "Not Started"

	// FlowStatusInProgress — есть и выполненные, и невыполненные задачи.
	FlowStatusInProgress FlowStatus = "In Progress"

	// FlowStatusCompleted — все шаги выполнены.
	FlowStatusCompleted FlowStatus = "Completed"
)

// IsTerminal возвращает true, если анкета полностью пройдена.
func (s FlowStatus) IsTerminal() bool {
	return s == FlowStatusCompleted
}

// String возвращает строковое представление FlowStatus.
func (s FlowStatus) String() string {
	return string(s)
}
