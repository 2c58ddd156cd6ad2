package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowmind/flowmind/internal/atoms"
	"github.com/flowmind/flowmind/internal/domain"
)

// Executor последовательно исполняет валидированный план.
//
// Исполнение однопоточное и fail-fast: шаги обходятся строго в порядке
// execution_order, первая фатальная ошибка завершает запуск. Контекст
// исполнения (outputs завершённых шагов) живёт только в памяти запуска.
type Executor struct {
	registry *atoms.Registry
	invoker  *atoms.Invoker
	logger   *slog.Logger
}

// NewExecutor создаёт исполнитель поверх реестра определений и таблицы
// диспетчеризации.
func NewExecutor(registry *atoms.Registry, invoker *atoms.Invoker, logger *slog.Logger) *Executor {
	return &Executor{
		registry: registry,
		invoker:  invoker,
		logger:   logger,
	}
}

// Execute исполняет план по порядку из результата валидации.
//
// Исполнитель никогда не валидирует повторно: невалидный (или отсутствующий)
// результат валидации — отказ от исполнения без обхода шагов. plan и
// validation должны происходить из одного вызова Validate.
func (e *Executor) Execute(ctx context.Context, plan *domain.PlanDocument, validation *domain.ValidationResult) *domain.ExecutionResult {
	result := &domain.ExecutionResult{
		RunID:       uuid.New(),
		StepResults: []domain.StepResult{},
		StartedAt:   time.Now().UTC(),
	}

	if plan == nil || validation == nil || !validation.Valid {
		result.Error = "Plan validation failed; refusing to execute."
		result.FinishedAt = time.Now().UTC()
		return result
	}

	log := e.logger.With(slog.String("run_id", result.RunID.String()))
	log.Info("запуск плана",
		slog.String("target", plan.Target),
		slog.Int("steps", len(plan.Plan.Steps)))

	lookup := plan.Plan.StepLookup()
	runContext := make(map[string]map[string]any, len(plan.Plan.Steps))

	for _, stepID := range validation.ExecutionOrder {
		if err := ctx.Err(); err != nil {
			e.fail(result, stepFailure(stepID, "", domain.CodeStepExecutionError,
				fmt.Sprintf("Run cancelled before step %q: %v", stepID, err)))
			return result
		}

		step, ok := lookup[stepID]
		if !ok {
			e.fail(result, stepFailure(stepID, "", domain.CodeStepNotFound,
				fmt.Sprintf("Step %q from execution_order not found in plan.steps", stepID)))
			return result
		}

		fn, err := e.invoker.Resolve(step.AtomID)
		if err != nil {
			e.fail(result, stepFailure(stepID, step.AtomID, domain.CodeUnresolvedAtom, err.Error()))
			return result
		}

		resolved, err := ResolveInputs(step.Inputs, runContext)
		if err != nil {
			e.fail(result, stepFailure(stepID, step.AtomID,
				CodeOf(err, domain.CodeUnresolvedRef), messageOf(err)))
			return result
		}

		returnValue, err := e.invoke(ctx, step.AtomID, fn, resolved)
		if err != nil {
			e.fail(result, stepFailure(stepID, step.AtomID, domain.CodeStepExecutionError,
				fmt.Sprintf("Atom %q raised: %v", step.AtomID, err)))
			return result
		}

		atomDef, _ := e.registry.Get(step.AtomID)
		outputs := mapOutputs(returnValue, &atomDef)
		runContext[stepID] = outputs

		result.StepResults = append(result.StepResults, domain.StepResult{
			StepID:  stepID,
			AtomID:  step.AtomID,
			Status:  domain.StepStatusCompleted,
			Outputs: outputs,
		})

		log.Info("шаг выполнен",
			slog.String("step_id", stepID),
			slog.String("atom_id", step.AtomID))
	}

	result.Success = true
	result.FinishedAt = time.Now().UTC()
	log.Info("план выполнен",
		slog.Int("steps", len(result.StepResults)),
		slog.Duration("duration", result.Duration()))
	return result
}

// invoke вызывает функцию атома, перехватывая панику.
// Паника атома — ошибка шага, а не падение процесса.
func (e *Executor) invoke(ctx context.Context, atomID string, fn atoms.Func, inputs map[string]any) (ret any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, inputs)
}

// fail записывает провалившийся шаг и завершает результат запуска.
func (e *Executor) fail(result *domain.ExecutionResult, stepResult domain.StepResult) {
	result.StepResults = append(result.StepResults, stepResult)
	result.Success = false
	result.Error = stepResult.Error
	result.FinishedAt = time.Now().UTC()

	e.logger.Warn("шаг провален",
		slog.String("run_id", result.RunID.String()),
		slog.String("step_id", stepResult.StepID),
		slog.String("atom_id", stepResult.AtomID),
		slog.String("error", stepResult.Error))
}

// stepFailure строит результат провалившегося шага.
// Строка ошибки имеет стабильный формат "[CODE] message".
func stepFailure(stepID, atomID string, code domain.ErrorCode, message string) domain.StepResult {
	return domain.StepResult{
		StepID:  stepID,
		AtomID:  atomID,
		Status:  domain.StepStatusFailed,
		Outputs: map[string]any{},
		Error:   NewError(code, message).Error(),
	}
}

// mapOutputs маппит возвращаемое значение функции на объявленные выходы атома.
//
// Правила:
//   - выходов не объявлено → пустая map
//   - один выход → {имя: значение}
//   - несколько выходов → значение ожидается map; отсутствующие ключи
//     становятся явными nil, не-map значение ложится в первый выход
func mapOutputs(returnValue any, atomDef *domain.AtomDef) map[string]any {
	if atomDef == nil {
		return map[string]any{}
	}

	declared := atomDef.DeclaredOutputs()
	if len(declared) == 0 {
		return map[string]any{}
	}

	if len(declared) == 1 {
		return map[string]any{declared[0].Name: returnValue}
	}

	if m, ok := returnValue.(map[string]any); ok {
		outputs := make(map[string]any, len(declared))
		for _, out := range declared {
			outputs[out.Name] = m[out.Name]
		}
		return outputs
	}

	return map[string]any{declared[0].Name: returnValue}
}

// messageOf возвращает сообщение ошибки движка без префикса "[CODE] ".
func messageOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return err.Error()
}
