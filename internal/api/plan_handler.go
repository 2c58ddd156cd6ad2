package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/flowmind/flowmind/internal/domain"
	"github.com/flowmind/flowmind/internal/engine"
)

// CreatePlan обрабатывает POST /plan.
//
// Основной конвейер: намерение → планировщик → валидатор → исполнитель.
// Если валидация прошла, план исполняется сразу; иначе execution=null
// и клиент получает ошибки валидации.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	intent := strings.TrimSpace(req.Intent)

	doc, err := h.planner.Plan(r.Context(), intent)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Каждый шаг обогащается схемой входов его атома, чтобы фронтенд
	// мог отрисовать формы без отдельного запроса каталога.
	h.enrichInputSchema(doc)

	plan, validation := engine.Validate(doc, h.registry)

	var execution *domain.ExecutionResult
	if validation.Valid {
		execution = h.executor.Execute(r.Context(), plan, validation)
		h.publishRunCompleted(r.Context(), plan.Target, execution)
	}

	JSON(w, http.StatusOK, PlanResponse{
		Plan:       doc,
		Validation: validation,
		Execution:  execution,
	})
}

// enrichInputSchema добавляет каждому шагу input_schema из реестра.
// Шаги и атомы, не поддающиеся разбору, пропускаются: их проблемы
// сообщит валидатор.
func (h *Handler) enrichInputSchema(doc map[string]any) {
	plan, _ := doc["plan"].(map[string]any)
	steps, _ := plan["steps"].([]any)

	for _, rawStep := range steps {
		step, ok := rawStep.(map[string]any)
		if !ok {
			continue
		}

		atomID, _ := step["id"].(string)
		atom, ok := h.registry.Get(atomID)
		if !ok {
			continue
		}

		schema := make([]domain.AtomInput, 0, len(atom.Inputs))
		for _, in := range atom.Inputs {
			if in.Name == "" {
				continue
			}
			schema = append(schema, in)
		}
		step["input_schema"] = schema
	}
}

// publishRunCompleted отправляет событие о завершённом запуске.
// Отказ брокера не влияет на HTTP ответ.
func (h *Handler) publishRunCompleted(ctx context.Context, target string, result *domain.ExecutionResult) {
	if h.publisher == nil || result == nil {
		return
	}

	if err := h.publisher.PublishRunCompleted(ctx, target, result); err != nil {
		h.logger.Warn("failed to publish run.completed",
			"run_id", result.RunID,
			"error", err,
		)
	}
}
