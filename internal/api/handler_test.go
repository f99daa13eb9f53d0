package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shaiso/Admitto/internal/service"
)

func newTestMux() *http.ServeMux {
	svc := service.New(service.Config{})
	h := NewHandler(Config{Service: svc})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object in response: %s", rec.Body.String())
	}
	return data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	errObj, ok := decodeBody(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in response: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func createUser(t *testing.T, mux *http.ServeMux, email string) string {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{"email": email})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := dataField(t, rec)["user_id"].(string)
	if id == "" {
		t.Fatal("user_id missing in create response")
	}
	return id
}

func taskPath(userID, step, task string) string {
	return fmt.Sprintf("/api/v1/users/%s/flow/steps/%s/tasks/%s",
		userID, url.PathEscape(step), url.PathEscape(task))
}

// completeDefaultFlow проходит всю стандартную анкету через API.
func completeDefaultFlow(t *testing.T, mux *http.ServeMux, userID string) {
	t.Helper()

	steps := []struct {
		step    string
		task    string
		payload map[string]any
	}{
		{"Personal Details Form", "Personal Details Form", map[string]any{
			"first_name": "Ada", "last_name": "Lovelace",
			"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"}},
		{"IQ Test", "IQ Test", map[string]any{
			"test_id": "iq-1", "score": 90, "timestamp": "2024-01-15 11:00:00"}},
		{"Interview", "schedule interview", map[string]any{"interview_date": "2024-01-20"}},
		{"Interview", "perform interview", map[string]any{
			"interview_date": "2024-01-20", "interviewer_id": "int-7", "decision": "passed_interview"}},
		{"Sign Contract", "upload identification document", map[string]any{
			"passport_number": "123456", "timestamp": "2024-01-21 09:00:00"}},
		{"Sign Contract", "sign contract", map[string]any{"timestamp": "2024-01-21 09:30:00"}},
		{"Payment", "Payment", map[string]any{"payment_id": "pay-1", "timestamp": "2024-01-22 14:00:00"}},
		{"Join Slack", "Join Slack", map[string]any{"email": "ada@example.com", "timestamp": "2024-01-23 10:00:00"}},
	}

	for _, s := range steps {
		rec := doJSON(t, mux, http.MethodPut, taskPath(userID, s.step, s.task),
			map[string]any{"task_payload": s.payload})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s/%s: status %d: %s", s.step, s.task, rec.Code, rec.Body.String())
		}
	}
}

// --- Users ---

func TestCreateUserEndpoint(t *testing.T) {
	mux := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{"email": "alice@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	data := dataField(t, rec)
	if data["email"] != "alice@example.com" {
		t.Errorf("email = %v", data["email"])
	}
	if data["user_id"] == "" {
		t.Error("user_id missing")
	}
}

func TestCreateUserEndpoint_Errors(t *testing.T) {
	mux := newTestMux()

	// Сломанный JSON
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{"email": ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty email: status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Errorf("empty email: code = %q", code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{"email": "not-an-email"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad email: status = %d", rec.Code)
	}

	createUser(t, mux, "taken@example.com")
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{"email": "taken@example.com"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "CONFLICT" {
		t.Errorf("duplicate email: code = %q", code)
	}
}

func TestCreateUserEndpoint_CustomSteps(t *testing.T) {
	mux := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "bob@example.com",
		"custom_steps": []map[string]any{
			{"step_name": "Portfolio Review", "tasks": []map[string]any{
				{"task_name": "upload portfolio", "required_fields": []string{"portfolio_url"}},
			}},
			{"step_name": "Culture Fit"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	id, _ := dataField(t, rec)["user_id"].(string)
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get flow: status = %d", rec.Code)
	}
	if total := decodeBody(t, rec)["total"]; total != float64(2) {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestGetUserEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data := dataField(t, rec)
	if data["flow_status"] != "Not Started" {
		t.Errorf("flow_status = %v", data["flow_status"])
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/7b6a6d52-efe2-45a9-a09e-0842e37afd1c", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d", rec.Code)
	}
}

func TestListUsersEndpoint(t *testing.T) {
	mux := newTestMux()
	createUser(t, mux, "a@example.com")
	createUser(t, mux, "b@example.com")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if total := decodeBody(t, rec)["total"]; total != float64(2) {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestUpdateEmailEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "old@example.com")

	rec := doJSON(t, mux, http.MethodPatch, "/api/v1/users/"+id+"/email",
		map[string]any{"email": "new@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Email updated successfully" {
		t.Errorf("message = %v", msg)
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodDelete, "/api/v1/users/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "User deleted" {
		t.Errorf("message = %v", msg)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d", rec.Code)
	}
}

// --- Flow reads ---

func TestGetFlowEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["total"] != float64(6) {
		t.Errorf("total = %v, want 6", body["total"])
	}
	steps, ok := body["data"].([]any)
	if !ok || len(steps) != 6 {
		t.Fatalf("expected 6 steps in data")
	}
	first, _ := steps[0].(map[string]any)
	if first["step_name"] != "Personal Details Form" {
		t.Errorf("first step = %v", first["step_name"])
	}
	if first["status"] != "not completed" {
		t.Errorf("first status = %v", first["status"])
	}
}

func TestCurrentStepEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow/current", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataField(t, rec)
	step, _ := data["current_step"].(map[string]any)
	if step["name"] != "Personal Details Form" {
		t.Errorf("current step = %v", step["name"])
	}
	if step["level"] != float64(0) {
		t.Errorf("level = %v", step["level"])
	}
	task, _ := data["current_task"].(map[string]any)
	if task["name"] != "Personal Details Form" {
		t.Errorf("current task = %v", task["name"])
	}
}

func TestCurrentStepEndpoint_FlowComplete(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "ada@example.com")
	completeDefaultFlow(t, mux, id)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow/current", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if status := dataField(t, rec)["status"]; status != "All steps completed" {
		t.Errorf("status = %v", status)
	}
}

func TestFlowStatusEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow/status", nil)
	if status := dataField(t, rec)["status"]; status != "Not Started" {
		t.Errorf("status = %v", status)
	}

	rec = doJSON(t, mux, http.MethodPut, taskPath(id, "Personal Details Form", "Personal Details Form"),
		map[string]any{"task_payload": map[string]any{
			"first_name": "Ada", "last_name": "Lovelace",
			"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete task: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow/status", nil)
	if status := dataField(t, rec)["status"]; status != "In Progress" {
		t.Errorf("status = %v", status)
	}
}

// --- Flow progression ---

func TestCompleteTaskEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodPut, taskPath(id, "Personal Details Form", "Personal Details Form"),
		map[string]any{"task_payload": map[string]any{
			"first_name": "Ada", "last_name": "Lovelace",
			"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Task marked as completed" {
		t.Errorf("message = %v", msg)
	}
}

func TestCompleteTaskEndpoint_Errors(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	// Без task_payload
	rec := doJSON(t, mux, http.MethodPut, taskPath(id, "Personal Details Form", "Personal Details Form"),
		map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing payload: status = %d", rec.Code)
	}

	// Неверный формат поля
	rec = doJSON(t, mux, http.MethodPut, taskPath(id, "Personal Details Form", "Personal Details Form"),
		map[string]any{"task_payload": map[string]any{
			"first_name": "Ada", "last_name": "Lovelace",
			"email": "not-an-email", "timestamp": "2024-01-15 10:00:00"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad field: status = %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Errorf("bad field: code = %q", code)
	}

	// Неизвестный шаг
	rec = doJSON(t, mux, http.MethodPut, taskPath(id, "No Such Step", "x"),
		map[string]any{"task_payload": map[string]any{}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown step: status = %d", rec.Code)
	}
}

func TestCompleteTaskEndpoint_ConditionNotMet(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodPut, taskPath(id, "Personal Details Form", "Personal Details Form"),
		map[string]any{"task_payload": map[string]any{
			"first_name": "Ada", "last_name": "Lovelace",
			"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("personal details: status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, taskPath(id, "IQ Test", "IQ Test"),
		map[string]any{"task_payload": map[string]any{
			"test_id": "iq-1", "score": 60, "timestamp": "2024-01-15 11:00:00"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("failed condition: status = %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Errorf("failed condition: code = %q", code)
	}
}

func TestCompleteStepEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodPut,
		"/api/v1/users/"+id+"/flow/steps/"+url.PathEscape("Personal Details Form")+"/complete",
		map[string]any{"step_payload": map[string]any{
			"Personal Details Form": map[string]any{
				"first_name": "Ada", "last_name": "Lovelace",
				"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"},
		}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Step marked as completed" {
		t.Errorf("message = %v", msg)
	}

	// Без step_payload
	rec = doJSON(t, mux, http.MethodPut,
		"/api/v1/users/"+id+"/flow/steps/Interview/complete", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing payload: status = %d", rec.Code)
	}
}

// --- Flow restructuring ---

func TestAddStepEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users/"+id+"/flow/steps",
		map[string]any{"step_name": "Security Review"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Step 'Security Review' added" {
		t.Errorf("message = %v", msg)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users/"+id+"/flow/steps",
		map[string]any{"step_name": "Background Check", "index": 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Step 'Background Check' added at index 2" {
		t.Errorf("message = %v", msg)
	}

	// Дубликат имени шага
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users/"+id+"/flow/steps",
		map[string]any{"step_name": "Security Review"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate step: status = %d", rec.Code)
	}
}

func TestRemoveStepEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodDelete,
		"/api/v1/users/"+id+"/flow/steps?step_name="+url.QueryEscape("Payment"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Step removed successfully" {
		t.Errorf("message = %v", msg)
	}

	// Оба селектора сразу
	rec = doJSON(t, mux, http.MethodDelete,
		"/api/v1/users/"+id+"/flow/steps?step_name=IQ+Test&index=1", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("ambiguous selector: status = %d", rec.Code)
	}

	// Ни одного селектора
	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/users/"+id+"/flow/steps", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("missing selector: status = %d", rec.Code)
	}

	// Нечисловой индекс
	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/users/"+id+"/flow/steps?index=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad index: status = %d", rec.Code)
	}
}

func TestModifyStepEndpoint(t *testing.T) {
	mux := newTestMux()
	id := createUser(t, mux, "alice@example.com")

	rec := doJSON(t, mux, http.MethodPatch, "/api/v1/users/"+id+"/flow/steps",
		map[string]any{"new_step_name": "Aptitude Test", "step_name": "IQ Test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if msg := dataField(t, rec)["message"]; msg != "Step modified to 'Aptitude Test'" {
		t.Errorf("message = %v", msg)
	}

	// Переименованный шаг виден в анкете
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/"+id+"/flow", nil)
	steps, _ := decodeBody(t, rec)["data"].([]any)
	found := false
	for _, s := range steps {
		step, _ := s.(map[string]any)
		if step["step_name"] == "Aptitude Test" {
			found = true
		}
	}
	if !found {
		t.Error("renamed step not present in flow")
	}
}
