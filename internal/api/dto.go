package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Admitto/internal/domain"
	"github.com/shaiso/Admitto/internal/engine"
	"github.com/shaiso/Admitto/internal/service"
)

// User DTOs

// CreateUserRequest — запрос на создание пользователя.
// custom_steps заменяет стандартный набор шагов анкеты.
type CreateUserRequest struct {
	Email       string    `json:"email"`
	CustomSteps []StepDef `json:"custom_steps,omitempty"`
}

// UpdateEmailRequest — запрос на смену email.
type UpdateEmailRequest struct {
	Email string `json:"email"`
}

// UserResponse — ответ с пользователем.
type UserResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u domain.User) UserResponse {
	return UserResponse{
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserDetailResponse — пользователь вместе со статусом анкеты.
type UserDetailResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	FlowStatus string    `json:"flow_status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Flow DTOs

// StepDef — описание шага в запросах.
type StepDef struct {
	StepName string    `json:"step_name"`
	Tasks    []TaskDef `json:"tasks,omitempty"`
}

// TaskDef — описание задачи в запросах.
type TaskDef struct {
	TaskName       string        `json:"task_name"`
	RequiredFields []string      `json:"required_fields,omitempty"`
	Condition      *ConditionDef `json:"condition,omitempty"`
}

// ConditionDef — условие задачи: имя предиката из реестра условий
// и поле payload, значение которого предикат получает.
type ConditionDef struct {
	Name string `json:"name"`
	Var  string `json:"var"`
}

// toTask конвертирует TaskDef в задачу движка.
func (t TaskDef) toTask() *engine.Task {
	var cond *engine.Condition
	if t.Condition != nil {
		cond = &engine.Condition{Name: t.Condition.Name, Var: t.Condition.Var}
	}
	return engine.NewTask(t.TaskName, t.RequiredFields, cond)
}

// tasksFromDefs конвертирует список TaskDef. Пустой список — nil:
// движок подставит задачу по умолчанию.
func tasksFromDefs(defs []TaskDef) []*engine.Task {
	if len(defs) == 0 {
		return nil
	}
	tasks := make([]*engine.Task, len(defs))
	for i, d := range defs {
		tasks[i] = d.toTask()
	}
	return tasks
}

// customStepsFromDefs конвертирует список StepDef для создания анкеты.
func customStepsFromDefs(defs []StepDef) []engine.CustomStep {
	if len(defs) == 0 {
		return nil
	}
	steps := make([]engine.CustomStep, len(defs))
	for i, d := range defs {
		steps[i] = engine.CustomStep{
			Name:  d.StepName,
			Tasks: tasksFromDefs(d.Tasks),
		}
	}
	return steps
}

// StepResponse — шаг анкеты в ответах.
type StepResponse struct {
	StepName string `json:"step_name"`
	Index    int    `json:"index"`
	Status   string `json:"status"`
}

// StepFromView конвертирует service.StepView в StepResponse.
func StepFromView(v service.StepView) StepResponse {
	return StepResponse{
		StepName: v.Name,
		Index:    v.Index,
		Status:   string(v.Status),
	}
}

// CurrentStepInfo — текущий шаг анкеты.
type CurrentStepInfo struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Status string `json:"status"`
}

// CurrentTaskInfo — текущая задача анкеты.
type CurrentTaskInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// CurrentResponse — текущая позиция пользователя в анкете.
type CurrentResponse struct {
	CurrentStep CurrentStepInfo `json:"current_step"`
	CurrentTask CurrentTaskInfo `json:"current_task"`
}

// FlowStatusResponse — статус анкеты.
type FlowStatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse — ответ с текстовым сообщением об операции.
type MessageResponse struct {
	Message string `json:"message"`
}

// Запросы прохождения анкеты

// CompleteTaskRequest — payload выполняемой задачи.
type CompleteTaskRequest struct {
	TaskPayload map[string]any `json:"task_payload"`
}

// CompleteStepRequest — payload всех задач шага: имя задачи → payload.
type CompleteStepRequest struct {
	StepPayload map[string]map[string]any `json:"step_payload"`
}

// Запросы перестройки анкеты

// AddStepRequest — запрос на добавление шага.
type AddStepRequest struct {
	StepName string    `json:"step_name"`
	Index    *int      `json:"index,omitempty"`
	Tasks    []TaskDef `json:"tasks,omitempty"`
}

// ModifyStepRequest — запрос на изменение шага. Изменяемый шаг
// выбирается ровно одним из step_name / index.
type ModifyStepRequest struct {
	NewStepName string    `json:"new_step_name"`
	StepName    *string   `json:"step_name,omitempty"`
	Index       *int      `json:"index,omitempty"`
	Tasks       []TaskDef `json:"tasks,omitempty"`
}
