package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// IssueView — одна ошибка валидации из API.
type IssueView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ValidationView — результат валидации из API.
type ValidationView struct {
	Valid          bool        `json:"valid"`
	Errors         []IssueView `json:"errors,omitempty"`
	Warnings       []IssueView `json:"warnings"`
	ExecutionOrder []string    `json:"execution_order,omitempty"`
}

// StepResultView — результат шага из API.
type StepResultView struct {
	StepID  string         `json:"step_id"`
	AtomID  string         `json:"atom_id"`
	Status  string         `json:"status"`
	Outputs map[string]any `json:"outputs"`
	Error   string         `json:"error,omitempty"`
}

// ExecutionView — результат исполнения из API.
type ExecutionView struct {
	RunID       string           `json:"run_id"`
	Success     bool             `json:"success"`
	StepResults []StepResultView `json:"step_results"`
	Error       string           `json:"error,omitempty"`
	StartedAt   string           `json:"started_at,omitempty"`
	FinishedAt  string           `json:"finished_at,omitempty"`
}

// PlanResult — тело ответа /plan и /execute.
type PlanResult struct {
	Plan       map[string]any `json:"plan"`
	Validation ValidationView `json:"validation"`
	Execution  *ExecutionView `json:"execution"`
}

// --- Request types ---

type planRequest struct {
	Intent string `json:"intent"`
}

type executeRequest struct {
	Plan       map[string]any            `json:"plan"`
	UserInputs map[string]map[string]any `json:"user_inputs,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для flowmind API.
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

// CreatePlan отправляет намерение и возвращает план с результатами
// валидации и исполнения.
func (c *Client) CreatePlan(intent string) (*PlanResult, error) {
	var result PlanResult
	err := c.post("/plan", planRequest{Intent: intent}, &result)
	return &result, err
}

// ExecutePlan отправляет документ плана и пользовательские входы.
func (c *Client) ExecutePlan(plan map[string]any, userInputs map[string]map[string]any) (*PlanResult, error) {
	var result PlanResult
	err := c.post("/execute", executeRequest{Plan: plan, UserInputs: userInputs}, &result)
	return &result, err
}

// Health проверяет доступность API.
func (c *Client) Health() (string, error) {
	var health healthResponse
	if err := c.get("/health", &health); err != nil {
		return "", err
	}
	return health.Status, nil
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
