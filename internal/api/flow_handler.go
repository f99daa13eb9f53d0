package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Admitto/internal/engine"
)

// GetFlow возвращает шаги анкеты пользователя в порядке индексов.
// GET /api/v1/users/{id}/flow
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	views, err := h.service.GetFlow(id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	result := make([]StepResponse, len(views))
	for i, v := range views {
		result[i] = StepFromView(v)
	}

	List(w, result, len(result))
}

// GetCurrentStep возвращает текущий шаг и задачу пользователя.
// GET /api/v1/users/{id}/flow/current
func (h *Handler) GetCurrentStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	current, err := h.service.CurrentStep(id)
	if errors.Is(err, engine.ErrFlowComplete) {
		Success(w, FlowStatusResponse{Status: "All steps completed"})
		return
	}
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, CurrentResponse{
		CurrentStep: CurrentStepInfo{
			Name:   current.StepName,
			Level:  current.StepIndex,
			Status: string(current.StepStatus),
		},
		CurrentTask: CurrentTaskInfo{
			Name:   current.TaskName,
			Status: string(current.TaskStatus),
		},
	})
}

// GetFlowStatus возвращает сводный статус анкеты.
// GET /api/v1/users/{id}/flow/status
func (h *Handler) GetFlowStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	status, err := h.service.FlowStatus(id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, FlowStatusResponse{Status: status.String()})
}

// CompleteTask выполняет задачу шага.
// PUT /api/v1/users/{id}/flow/steps/{step}/tasks/{task}
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}
	stepName := r.PathValue("step")
	taskName := r.PathValue("task")

	var req CompleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.TaskPayload == nil {
		BadRequest(w, "task_payload is required")
		return
	}

	err = h.service.CompleteTask(r.Context(), id, stepName, taskName, req.TaskPayload)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: "Task marked as completed"})
}

// CompleteStep выполняет все невыполненные задачи шага разом.
// PUT /api/v1/users/{id}/flow/steps/{step}/complete
func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}
	stepName := r.PathValue("step")

	var req CompleteStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.StepPayload == nil {
		BadRequest(w, "step_payload is required")
		return
	}

	err = h.service.CompleteStep(r.Context(), id, stepName, req.StepPayload)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: "Step marked as completed"})
}

// AddStep добавляет шаг в анкету.
// POST /api/v1/users/{id}/flow/steps
func (h *Handler) AddStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	var req AddStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	idx, err := h.service.AddStep(r.Context(), id, req.StepName, tasksFromDefs(req.Tasks), req.Index)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	message := fmt.Sprintf("Step '%s' added", req.StepName)
	if req.Index != nil {
		message = fmt.Sprintf("Step '%s' added at index %d", req.StepName, idx)
	}
	Created(w, MessageResponse{Message: message})
}

// RemoveStep удаляет шаг анкеты. Шаг выбирается ровно одним
// из query-параметров step_name / index.
// DELETE /api/v1/users/{id}/flow/steps
func (h *Handler) RemoveStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	var sel engine.Selector
	q := r.URL.Query()
	if name := q.Get("step_name"); name != "" {
		sel.StepName = &name
	}
	if raw := q.Get("index"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(w, "invalid index")
			return
		}
		sel.Index = &idx
	}

	err = h.service.RemoveStep(r.Context(), id, sel)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: "Step removed successfully"})
}

// ModifyStep переименовывает шаг и, если заданы tasks, заменяет
// его задачи. Шаг выбирается ровно одним из step_name / index.
// PATCH /api/v1/users/{id}/flow/steps
func (h *Handler) ModifyStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	var req ModifyStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	sel := engine.Selector{StepName: req.StepName, Index: req.Index}
	err = h.service.ModifyStep(r.Context(), id, req.NewStepName, sel, tasksFromDefs(req.Tasks))
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: fmt.Sprintf("Step modified to '%s'", req.NewStepName)})
}
