package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/flowmind/flowmind/internal/domain"
	"github.com/flowmind/flowmind/internal/engine"
)

// ExecutePlan обрабатывает POST /execute.
//
// Клиент присылает документ плана и пользовательские входы по эффективным
// идентификаторам шагов. Входы сливаются в план, результат валидируется
// заново и исполняется. Провал валидации после слияния — не HTTP ошибка:
// клиент получает структурированный ответ с ошибками и execution
// с success=false.
func (h *Handler) ExecutePlan(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	doc := req.Plan
	if doc == nil {
		doc = map[string]any{}
	}

	mergeUserInputs(doc, req.UserInputs)

	plan, validation := engine.Validate(doc, h.registry)
	if !validation.Valid {
		JSON(w, http.StatusOK, PlanResponse{
			Plan:       doc,
			Validation: validation,
			Execution: &domain.ExecutionResult{
				Success:     false,
				StepResults: []domain.StepResult{},
				Error:       "Plan validation failed after applying user inputs.",
			},
		})
		return
	}

	execution := h.executor.Execute(r.Context(), plan, validation)
	h.publishRunCompleted(r.Context(), plan.Target, execution)

	JSON(w, http.StatusOK, PlanResponse{
		Plan:       doc,
		Validation: validation,
		Execution:  execution,
	})
}

// mergeUserInputs сливает пользовательские входы в шаги плана.
// Значения пользователя поверх-записывают плейсхолдеры плана.
// Шаги адресуются эффективным идентификатором: явным step_id
// или позицией шага строкой.
func mergeUserInputs(doc map[string]any, userInputs map[string]map[string]any) {
	if len(userInputs) == 0 {
		return
	}

	plan, _ := doc["plan"].(map[string]any)
	steps, _ := plan["steps"].([]any)

	for index, rawStep := range steps {
		step, ok := rawStep.(map[string]any)
		if !ok {
			continue
		}

		effectiveID := strconv.Itoa(index)
		if sid, ok := step["step_id"].(string); ok && strings.TrimSpace(sid) != "" {
			effectiveID = strings.TrimSpace(sid)
		}

		stepInputs := userInputs[effectiveID]
		if len(stepInputs) == 0 {
			continue
		}

		merged := map[string]any{}
		if existing, ok := step["inputs"].(map[string]any); ok {
			for k, v := range existing {
				merged[k] = v
			}
		}
		for k, v := range stepInputs {
			merged[k] = v
		}
		step["inputs"] = merged
	}
}
