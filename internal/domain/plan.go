package domain

import (
	"strconv"
	"strings"
)

// PlanDocument — декларативный документ плана.
//
// PlanDocument создаётся планировщиком (или приходит от клиента через API),
// проходит валидацию и исполняется. После валидации документ не мутируется.
type PlanDocument struct {
	// Target — цель плана в свободной форме (исходный intent пользователя).
	Target string `json:"target"`

	// Plan — тело плана: шаги и итоговые outputs.
	Plan Plan `json:"plan"`
}

// Plan — тело плана.
type Plan struct {
	// Steps — упорядоченный список шагов.
	Steps []Step `json:"steps"`

	// Outputs — маппинг итоговых выходов плана (опционально).
	Outputs map[string]any `json:"outputs,omitempty"`
}

// Step — один вызов атома внутри плана.
type Step struct {
	// StepID — явный идентификатор шага (опционально).
	// Если не задан, эффективным идентификатором становится позиция шага.
	StepID string `json:"step_id,omitempty"`

	// AtomID — идентификатор атома в формате "package.domain.action".
	AtomID string `json:"id"`

	// Target — назначение шага в свободной форме.
	Target string `json:"target"`

	// Inputs — входные значения шага.
	// Значение может быть литералом или ссылкой "${step.outputs.field}".
	Inputs map[string]any `json:"inputs"`

	// DependsOn — явные зависимости: эффективные идентификаторы шагов,
	// которые должны завершиться до этого шага.
	DependsOn []string `json:"depends_on,omitempty"`
}

// EffectiveStepID возвращает эффективный идентификатор шага:
// обрезанный StepID, если он задан, иначе позиция шага строкой.
func EffectiveStepID(step *Step, index int) string {
	if sid := strings.TrimSpace(step.StepID); sid != "" {
		return sid
	}
	return strconv.Itoa(index)
}

// EffectiveIDs возвращает эффективные идентификаторы всех шагов
// в порядке объявления.
func (p *Plan) EffectiveIDs() []string {
	ids := make([]string, len(p.Steps))
	for i := range p.Steps {
		ids[i] = EffectiveStepID(&p.Steps[i], i)
	}
	return ids
}

// StepLookup строит отображение эффективный идентификатор → шаг.
func (p *Plan) StepLookup() map[string]*Step {
	lookup := make(map[string]*Step, len(p.Steps))
	for i := range p.Steps {
		lookup[EffectiveStepID(&p.Steps[i], i)] = &p.Steps[i]
	}
	return lookup
}
