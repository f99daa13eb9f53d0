package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// UserResponse — пользователь из API.
type UserResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserDetailResponse — пользователь вместе с общим статусом анкеты.
type UserDetailResponse struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FlowStatus string `json:"flow_status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// StepResponse — шаг анкеты из API.
type StepResponse struct {
	StepName string `json:"step_name"`
	Index    int    `json:"index"`
	Status   string `json:"status"`
}

// CurrentStepInfo — текущий шаг внутри CurrentResponse.
type CurrentStepInfo struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Status string `json:"status"`
}

// CurrentTaskInfo — текущая задача внутри CurrentResponse.
type CurrentTaskInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// CurrentResponse — текущая позиция в анкете. Для полностью
// завершённой анкеты API возвращает только поле status.
type CurrentResponse struct {
	CurrentStep *CurrentStepInfo `json:"current_step,omitempty"`
	CurrentTask *CurrentTaskInfo `json:"current_task,omitempty"`
	Status      string           `json:"status,omitempty"`
}

// FlowStatusResponse — общий статус анкеты.
type FlowStatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse — текстовый результат операции.
type MessageResponse struct {
	Message string `json:"message"`
}

// ConditionDef — условие допуска к выполнению задачи.
type ConditionDef struct {
	Name string `json:"name"`
	Var  string `json:"var"`
}

// TaskDef — описание задачи пользовательского шага.
type TaskDef struct {
	TaskName       string        `json:"task_name"`
	RequiredFields []string      `json:"required_fields,omitempty"`
	Condition      *ConditionDef `json:"condition,omitempty"`
}

// StepDef — описание пользовательского шага.
type StepDef struct {
	StepName string    `json:"step_name"`
	Tasks    []TaskDef `json:"tasks,omitempty"`
}

// --- Request types ---

// CreateUserRequest — регистрация пользователя.
type CreateUserRequest struct {
	Email       string    `json:"email"`
	CustomSteps []StepDef `json:"custom_steps,omitempty"`
}

// UpdateEmailRequest — смена email.
type UpdateEmailRequest struct {
	Email string `json:"email"`
}

// CompleteTaskRequest — данные для выполнения задачи.
type CompleteTaskRequest struct {
	TaskPayload map[string]any `json:"task_payload"`
}

// CompleteStepRequest — данные для выполнения шага целиком.
type CompleteStepRequest struct {
	StepPayload map[string]map[string]any `json:"step_payload"`
}

// AddStepRequest — добавление шага в анкету.
type AddStepRequest struct {
	StepName string    `json:"step_name"`
	Index    *int      `json:"index,omitempty"`
	Tasks    []TaskDef `json:"tasks,omitempty"`
}

// ModifyStepRequest — замена шага анкеты.
type ModifyStepRequest struct {
	NewStepName string    `json:"new_step_name"`
	StepName    *string   `json:"step_name,omitempty"`
	Index       *int      `json:"index,omitempty"`
	Tasks       []TaskDef `json:"tasks,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Admitto API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Users ---

// CreateUser регистрирует пользователя.
func (c *Client) CreateUser(req CreateUserRequest) (*UserResponse, error) {
	var user UserResponse
	if err := c.post("/api/v1/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers возвращает всех пользователей.
func (c *Client) ListUsers() ([]UserResponse, error) {
	var users []UserResponse
	if err := c.list("/api/v1/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser возвращает пользователя по ID.
func (c *Client) GetUser(id string) (*UserDetailResponse, error) {
	var user UserDetailResponse
	if err := c.get(c.userPath(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateEmail меняет email пользователя.
func (c *Client) UpdateEmail(id, email string) (*MessageResponse, error) {
	var msg MessageResponse
	if err := c.patch(c.userPath(id)+"/email", UpdateEmailRequest{Email: email}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteUser удаляет пользователя вместе с анкетой.
func (c *Client) DeleteUser(id string) (*MessageResponse, error) {
	var msg MessageResponse
	if err := c.delete(c.userPath(id), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// --- Flow ---

// GetFlow возвращает все шаги анкеты пользователя.
func (c *Client) GetFlow(userID string) ([]StepResponse, error) {
	var steps []StepResponse
	if err := c.list(c.userPath(userID)+"/flow", nil, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// GetCurrentStep возвращает текущий шаг и текущую задачу.
func (c *Client) GetCurrentStep(userID string) (*CurrentResponse, error) {
	var cur CurrentResponse
	if err := c.get(c.userPath(userID)+"/flow/current", &cur); err != nil {
		return nil, err
	}
	return &cur, nil
}

// GetFlowStatus возвращает общий статус анкеты.
func (c *Client) GetFlowStatus(userID string) (*FlowStatusResponse, error) {
	var status FlowStatusResponse
	if err := c.get(c.userPath(userID)+"/flow/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CompleteTask выполняет задачу шага с переданными данными.
func (c *Client) CompleteTask(userID, stepName, taskName string, payload map[string]any) (*MessageResponse, error) {
	path := c.userPath(userID) + "/flow/steps/" + url.PathEscape(stepName) +
		"/tasks/" + url.PathEscape(taskName)

	var msg MessageResponse
	if err := c.put(path, CompleteTaskRequest{TaskPayload: payload}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CompleteStep выполняет все оставшиеся задачи шага.
func (c *Client) CompleteStep(userID, stepName string, payload map[string]map[string]any) (*MessageResponse, error) {
	path := c.userPath(userID) + "/flow/steps/" + url.PathEscape(stepName) + "/complete"

	var msg MessageResponse
	if err := c.put(path, CompleteStepRequest{StepPayload: payload}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AddStep добавляет шаг в анкету.
func (c *Client) AddStep(userID string, req AddStepRequest) (*MessageResponse, error) {
	var msg MessageResponse
	if err := c.post(c.userPath(userID)+"/flow/steps", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RemoveStep удаляет шаг по имени или индексу. Селектор должен быть
// ровно один: либо stepName, либо index.
func (c *Client) RemoveStep(userID, stepName string, index *int) (*MessageResponse, error) {
	params := url.Values{}
	if stepName != "" {
		params.Set("step_name", stepName)
	}
	if index != nil {
		params.Set("index", strconv.Itoa(*index))
	}

	path := c.userPath(userID) + "/flow/steps"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var msg MessageResponse
	if err := c.delete(path, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ModifyStep заменяет шаг анкеты новым.
func (c *Client) ModifyStep(userID string, req ModifyStepRequest) (*MessageResponse, error) {
	var msg MessageResponse
	if err := c.patch(c.userPath(userID)+"/flow/steps", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) userPath(id string) string {
	return "/api/v1/users/" + url.PathEscape(id)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) patch(path string, body, result any) error {
	return c.doData(http.MethodPatch, path, body, result)
}

func (c *Client) delete(path string, result any) error {
	return c.doData(http.MethodDelete, path, nil, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil && lr.Data != nil {
		if err := json.Unmarshal(lr.Data, result); err != nil {
			return fmt.Errorf("failed to decode list data: %w", err)
		}
	}
	return nil
}

func (c *Client) doData(method, path string, body, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil && dr.Data != nil {
		if err := json.Unmarshal(dr.Data, result); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
