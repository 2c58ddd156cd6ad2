package api

import "github.com/flowmind/flowmind/internal/domain"

// PlanRequest — тело POST /plan.
type PlanRequest struct {
	// Intent — намерение пользователя в свободной форме.
	Intent string `json:"intent"`
}

// ExecuteRequest — тело POST /execute.
type ExecuteRequest struct {
	// Plan — документ плана (та же форма, что в ответе /plan).
	Plan map[string]any `json:"plan"`

	// UserInputs — пользовательские входы: эффективный идентификатор
	// шага → значения, которые поверх-записывают входы шага.
	UserInputs map[string]map[string]any `json:"user_inputs"`
}

// PlanResponse — тело ответа /plan и /execute.
//
// Plan остаётся сырым документом: /plan обогащает его input_schema,
// /execute возвращает документ после слияния пользовательских входов.
// Execution равен null, когда валидация не прошла (только /plan).
type PlanResponse struct {
	Plan       map[string]any           `json:"plan"`
	Validation *domain.ValidationResult `json:"validation"`
	Execution  *domain.ExecutionResult  `json:"execution"`
}

// HealthResponse — тело ответа /health.
type HealthResponse struct {
	Status string `json:"status"`
}
