package engine

import (
	"fmt"
	"strings"

	"github.com/flowmind/flowmind/internal/atoms"
	"github.com/flowmind/flowmind/internal/domain"
)

// Validate проверяет сырой документ плана по схеме и реестру атомов.
//
// Валидация идёт стадиями; внутри стадии собираются все ошибки, но
// провалившаяся стадия прерывает дальнейшие проверки, чтобы не плодить
// каскадный мусор поверх неоформленного документа:
//
//	S1  форма корня и plan.steps
//	S2  форма каждого шага и plan.outputs
//	S3  уникальность id, привязка к атомам, рёбра графа зависимостей
//	S4  поиск циклов и топологическая сортировка
//
// На успехе возвращает типизированный PlanDocument (вход в типизированное
// ядро) и результат с execution_order; на провале — nil и результат
// с ошибками. Документ не мутируется.
func Validate(doc map[string]any, reg *atoms.Registry) (*domain.PlanDocument, *domain.ValidationResult) {
	v := &validator{reg: reg}

	if doc == nil {
		v.addError(domain.CodeInvalidType, "Plan document must be an object", "")
		return nil, v.invalid()
	}

	rawSteps, ok := v.checkRoot(doc)
	if !ok {
		return nil, v.invalid()
	}

	steps, effIDs, ok := v.checkSteps(doc, rawSteps)
	if !ok {
		return nil, v.invalid()
	}

	graph, ok := v.checkSemantics(steps, effIDs)
	if !ok {
		return nil, v.invalid()
	}

	order, cyclic := graph.topoSort()
	if len(cyclic) > 0 {
		ids := make([]string, len(cyclic))
		for i, idx := range cyclic {
			ids[i] = effIDs[idx]
		}
		v.addError(domain.CodeCircularDependency,
			"Circular dependency among steps: "+strings.Join(ids, ", "), "plan.steps")
		return nil, v.invalid()
	}

	executionOrder := make([]string, len(order))
	for i, idx := range order {
		executionOrder[i] = effIDs[idx]
	}

	plan := &domain.PlanDocument{
		Target: asString(doc["target"]),
		Plan: domain.Plan{
			Steps:   steps,
			Outputs: planOutputs(doc),
		},
	}

	return plan, &domain.ValidationResult{
		Valid:          true,
		Warnings:       []domain.ValidationIssue{},
		ExecutionOrder: executionOrder,
	}
}

// validator накапливает ошибки валидации.
type validator struct {
	reg    *atoms.Registry
	errors []domain.ValidationIssue
}

func (v *validator) addError(code domain.ErrorCode, message, path string) {
	v.errors = append(v.errors, domain.ValidationIssue{Code: code, Message: message, Path: path})
}

func (v *validator) failed() bool {
	return len(v.errors) > 0
}

func (v *validator) invalid() *domain.ValidationResult {
	return &domain.ValidationResult{
		Valid:    false,
		Errors:   v.errors,
		Warnings: []domain.ValidationIssue{},
	}
}

// --- S1: форма корня и plan.steps ---

// checkRoot проверяет target, plan и plan.steps.
// Возвращает сырой список шагов.
func (v *validator) checkRoot(doc map[string]any) ([]any, bool) {
	if target, present := doc["target"]; !present {
		v.addError(domain.CodeMissingField, "Missing required field 'target'", "target")
	} else if _, ok := target.(string); !ok {
		v.addError(domain.CodeInvalidType, "Field 'target' must be a string", "target")
	}

	planVal, present := doc["plan"]
	if !present {
		v.addError(domain.CodeMissingField, "Missing required field 'plan'", "plan")
	} else if _, ok := planVal.(map[string]any); !ok {
		v.addError(domain.CodeInvalidType, "Field 'plan' must be an object", "plan")
	}

	plan, _ := planVal.(map[string]any)

	var rawSteps []any
	if stepsVal, present := plan["steps"]; !present {
		v.addError(domain.CodeMissingField, "Missing required field 'plan.steps'", "plan.steps")
	} else if steps, ok := stepsVal.([]any); !ok {
		v.addError(domain.CodeInvalidType, "Field 'plan.steps' must be an array", "plan.steps")
	} else if len(steps) == 0 {
		v.addError(domain.CodeEmptySteps, "plan.steps must not be empty", "plan.steps")
	} else {
		rawSteps = steps
	}

	return rawSteps, !v.failed()
}

// --- S2: форма каждого шага и plan.outputs ---

// checkSteps проверяет форму шагов и строит типизированные шаги
// с эффективными идентификаторами.
func (v *validator) checkSteps(doc map[string]any, rawSteps []any) ([]domain.Step, []string, bool) {
	steps := make([]domain.Step, 0, len(rawSteps))

	for i, rawStep := range rawSteps {
		base := fmt.Sprintf("plan.steps[%d]", i)

		step, ok := rawStep.(map[string]any)
		if !ok {
			v.addError(domain.CodeInvalidType, "Step must be an object", base)
			continue
		}

		if id, present := step["id"]; !present {
			v.addError(domain.CodeMissingField, "Step must have 'id' (atom id)", base+".id")
		} else if _, ok := id.(string); !ok {
			v.addError(domain.CodeInvalidType, "Step 'id' must be a string", base+".id")
		}

		if target, present := step["target"]; !present {
			v.addError(domain.CodeMissingField, "Step must have 'target'", base+".target")
		} else if _, ok := target.(string); !ok {
			v.addError(domain.CodeInvalidType, "Step 'target' must be a string", base+".target")
		}

		if inputs, present := step["inputs"]; !present {
			v.addError(domain.CodeMissingField, "Step must have 'inputs'", base+".inputs")
		} else if _, ok := inputs.(map[string]any); !ok {
			v.addError(domain.CodeInvalidType, "Step 'inputs' must be an object", base+".inputs")
		}

		if sidVal, present := step["step_id"]; present {
			if sid, ok := sidVal.(string); !ok {
				v.addError(domain.CodeInvalidType, "Step 'step_id' must be a string", base+".step_id")
			} else if strings.TrimSpace(sid) == "" {
				v.addError(domain.CodeEmptyStepID, "Step 'step_id' must not be empty", base+".step_id")
			}
		}

		if depsVal, present := step["depends_on"]; present {
			if _, ok := depsVal.([]any); !ok {
				v.addError(domain.CodeInvalidType, "Step 'depends_on' must be an array", base+".depends_on")
			}
		}

		steps = append(steps, typedStep(step))
	}

	if plan, ok := doc["plan"].(map[string]any); ok {
		if outputs, present := plan["outputs"]; present && outputs != nil {
			if _, ok := outputs.(map[string]any); !ok {
				v.addError(domain.CodeInvalidType, "Field 'plan.outputs' must be an object", "plan.outputs")
			}
		}
	}

	if v.failed() {
		return nil, nil, false
	}

	effIDs := make([]string, len(steps))
	for i := range steps {
		effIDs[i] = domain.EffectiveStepID(&steps[i], i)
	}

	return steps, effIDs, true
}

// --- S3: уникальность, привязка к атомам, рёбра графа ---

// checkSemantics собирает все семантические ошибки одной стадией
// и строит граф зависимостей.
func (v *validator) checkSemantics(steps []domain.Step, effIDs []string) (*depGraph, bool) {
	seen := make(map[string]bool, len(effIDs))
	for i, sid := range effIDs {
		if seen[sid] {
			v.addError(domain.CodeDuplicateStepID,
				fmt.Sprintf("Duplicate step_id: %q", sid),
				fmt.Sprintf("plan.steps[%d].step_id", i))
		}
		seen[sid] = true
	}

	idToIndex := make(map[string]int, len(effIDs))
	for i, sid := range effIDs {
		idToIndex[sid] = i
	}

	for i := range steps {
		v.bindAtom(&steps[i], i)
	}

	graph := newDepGraph(len(steps))
	for i := range steps {
		v.collectEdges(graph, steps, idToIndex, i)
	}

	if v.failed() {
		return nil, false
	}
	return graph, true
}

// bindAtom проверяет шаг против контракта его атома.
func (v *validator) bindAtom(step *domain.Step, index int) {
	base := fmt.Sprintf("plan.steps[%d]", index)

	if step.AtomID == "" {
		return
	}

	atom, ok := v.reg.Get(step.AtomID)
	if !ok {
		v.addError(domain.CodeUnknownAtomID,
			fmt.Sprintf("Unknown atom id: %q", step.AtomID), base+".id")
		return
	}

	// Каждый ключ входов должен быть объявлен у атома.
	for _, key := range sortedKeys(step.Inputs) {
		if _, ok := atom.InputByName(key); !ok {
			v.addError(domain.CodeUnknownInputField,
				fmt.Sprintf("Unknown input field %q for atom %s", key, step.AtomID),
				base+".inputs."+key)
		}
	}

	// Каждый обязательный вход должен присутствовать с непустым значением.
	// Проверка пустоты применяется только к строкам: пустая после обрезки
	// строка допустима лишь как синтаксически корректная ссылка.
	for _, in := range atom.Inputs {
		if in.Name == "" || !in.Required {
			continue
		}

		val, present := step.Inputs[in.Name]
		if !present {
			v.addError(domain.CodeMissingRequiredInput,
				fmt.Sprintf("Required input %q is missing", in.Name), base+".inputs")
			continue
		}

		if val == nil || isBlankNonRef(val) {
			v.addError(domain.CodeMissingRequiredInput,
				fmt.Sprintf("Required input %q has no value", in.Name),
				base+".inputs."+in.Name)
		}
	}
}

// collectEdges добавляет в граф рёбра шага index: явные из depends_on
// и неявные из ссылок в значениях входов.
func (v *validator) collectEdges(graph *depGraph, steps []domain.Step, idToIndex map[string]int, index int) {
	step := &steps[index]
	base := fmt.Sprintf("plan.steps[%d]", index)

	for _, dep := range step.DependsOn {
		dep = strings.TrimSpace(dep)
		j, ok := idToIndex[dep]
		if !ok {
			v.addError(domain.CodeUnknownDependency,
				fmt.Sprintf("Unknown dependency step_id: %q", dep), base+".depends_on")
			continue
		}
		graph.addEdge(j, index)
	}

	// Неявные рёбра обнаруживаются только в строковых значениях верхнего
	// уровня; ссылка внутри вложенного объекта или массива ребром не станет.
	for _, key := range sortedKeys(step.Inputs) {
		ref, ok := ParseRef(step.Inputs[key])
		if !ok {
			continue
		}

		refIndex, ok := idToIndex[ref.StepID]
		if !ok {
			v.addError(domain.CodeUnknownStepRef,
				fmt.Sprintf("Unknown step reference: %q", ref.StepID), base+".inputs")
			continue
		}

		refAtom, _ := v.reg.Get(steps[refIndex].AtomID)
		if !refAtom.HasOutput(ref.Output) {
			v.addError(domain.CodeUnknownOutputField,
				fmt.Sprintf("Atom for step %q has no output %q", ref.StepID, ref.Output),
				base+".inputs")
			continue
		}

		graph.addEdge(refIndex, index)
	}
}

// --- Извлечение типизированных значений из сырого документа ---

// typedStep строит типизированный шаг из проверенной сырой map.
// Вызывается только после успешной схемной проверки шага.
func typedStep(raw map[string]any) domain.Step {
	step := domain.Step{
		StepID: asString(raw["step_id"]),
		AtomID: asString(raw["id"]),
		Target: asString(raw["target"]),
	}

	if inputs, ok := raw["inputs"].(map[string]any); ok {
		step.Inputs = inputs
	} else {
		step.Inputs = map[string]any{}
	}

	// Нестроковые элементы depends_on молча игнорируются,
	// как и в проверке рёбер.
	if deps, ok := raw["depends_on"].([]any); ok {
		for _, d := range deps {
			if s, ok := d.(string); ok {
				step.DependsOn = append(step.DependsOn, s)
			}
		}
	}

	return step
}

func planOutputs(doc map[string]any) map[string]any {
	plan, ok := doc["plan"].(map[string]any)
	if !ok {
		return nil
	}
	outputs, _ := plan["outputs"].(map[string]any)
	return outputs
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// isBlankNonRef — строка, пустая после обрезки и не являющаяся ссылкой.
func isBlankNonRef(val any) bool {
	s, ok := val.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) == "" && !IsRef(s)
}
