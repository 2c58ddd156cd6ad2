package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorCode — стабильный код ошибки валидации или исполнения.
// Коды являются частью внешнего контракта и не меняются.
type ErrorCode string

// Коды ошибок валидации.
const (
	CodeMissingField         ErrorCode = "MISSING_FIELD"
	CodeInvalidType          ErrorCode = "INVALID_TYPE"
	CodeEmptySteps           ErrorCode = "EMPTY_STEPS"
	CodeEmptyStepID          ErrorCode = "EMPTY_STEP_ID"
	CodeDuplicateStepID      ErrorCode = "DUPLICATE_STEP_ID"
	CodeUnknownAtomID        ErrorCode = "UNKNOWN_ATOM_ID"
	CodeUnknownInputField    ErrorCode = "UNKNOWN_INPUT_FIELD"
	CodeMissingRequiredInput ErrorCode = "MISSING_REQUIRED_INPUT"
	CodeUnknownDependency    ErrorCode = "UNKNOWN_DEPENDENCY"
	CodeUnknownStepRef       ErrorCode = "UNKNOWN_STEP_REF"
	CodeUnknownOutputField   ErrorCode = "UNKNOWN_OUTPUT_FIELD"
	CodeCircularDependency   ErrorCode = "CIRCULAR_DEPENDENCY"
)

// Коды ошибок исполнения.
const (
	CodeStepNotFound       ErrorCode = "STEP_NOT_FOUND"
	CodeUnresolvedAtom     ErrorCode = "UNRESOLVED_ATOM"
	CodeUnresolvedRef      ErrorCode = "UNRESOLVED_REF"
	CodeStepExecutionError ErrorCode = "STEP_EXECUTION_ERROR"
)

// ValidationIssue — одна ошибка (или предупреждение) валидации.
type ValidationIssue struct {
	// Code — стабильный код ошибки.
	Code ErrorCode `json:"code"`

	// Message — человекочитаемое описание.
	Message string `json:"message"`

	// Path — путь до проблемного места в документе,
	// например "plan.steps[2].inputs.user_id".
	Path string `json:"path"`
}

// ValidationResult — результат валидации плана.
//
// Инвариант: ExecutionOrder присутствует тогда и только тогда, когда
// Valid=true, и является перестановкой всех эффективных идентификаторов
// шагов в топологическом порядке графа зависимостей.
type ValidationResult struct {
	// Valid — прошёл ли план валидацию.
	Valid bool `json:"valid"`

	// Errors — ошибки валидации (только при Valid=false).
	Errors []ValidationIssue `json:"errors,omitempty"`

	// Warnings — предупреждения (план может оставаться валидным).
	Warnings []ValidationIssue `json:"warnings"`

	// ExecutionOrder — порядок исполнения: эффективные идентификаторы
	// шагов (только при Valid=true).
	ExecutionOrder []string `json:"execution_order,omitempty"`
}

// StepStatus — статус выполнения шага.
//
// Жизненный цикл: pending → completed или pending → failed.
type StepStatus string

const (
	// StepStatusCompleted — шаг успешно выполнен.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed — шаг завершился с ошибкой.
	StepStatusFailed StepStatus = "failed"
)

// StepResult — результат выполнения одного шага.
type StepResult struct {
	// StepID — эффективный идентификатор шага.
	StepID string `json:"step_id"`

	// AtomID — идентификатор атома шага (пустой, если шаг не найден).
	AtomID string `json:"atom_id"`

	// Status — completed или failed.
	Status StepStatus `json:"status"`

	// Outputs — именованные выходы шага.
	Outputs map[string]any `json:"outputs"`

	// Error — строка ошибки вида "[CODE] message" (только при failed).
	Error string `json:"error,omitempty"`
}

// ExecutionResult — результат исполнения плана.
//
// Исполнение строго последовательное и fail-fast: при первой фатальной
// ошибке шага run завершается, StepResults содержит всё обработанное
// до этого момента включительно.
type ExecutionResult struct {
	// RunID — уникальный идентификатор запуска.
	RunID uuid.UUID `json:"run_id"`

	// Success — завершились ли все шаги из execution_order успешно.
	Success bool `json:"success"`

	// StepResults — результаты шагов в порядке обработки.
	StepResults []StepResult `json:"step_results"`

	// Error — ошибка провалившегося шага (дублирует его Error
	// для удобства вызывающей стороны).
	Error string `json:"error,omitempty"`

	// StartedAt — время начала исполнения.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения исполнения.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность исполнения.
func (r *ExecutionResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
