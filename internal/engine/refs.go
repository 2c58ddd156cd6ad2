package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/flowmind/flowmind/internal/domain"
)

// refPattern — грамматика ссылочного выражения: ${step_id.outputs.output_name}.
// Идентификатор шага не содержит '.' и '}', имя выхода не содержит '}'.
// Применяется к строке после обрезки пробелов; частичные совпадения
// не считаются ссылками и проходят как литералы.
var refPattern = regexp.MustCompile(`^\$\{([^}.]+)\.outputs\.([^}]+)\}$`)

// Ref — разобранное ссылочное выражение.
type Ref struct {
	// StepID — эффективный идентификатор шага-производителя.
	StepID string

	// Output — имя выхода шага-производителя.
	Output string
}

// ParseRef разбирает значение как ссылочное выражение.
// Возвращает false для нестроковых значений и строк, не совпадающих
// с грамматикой целиком.
func ParseRef(value any) (Ref, bool) {
	s, ok := value.(string)
	if !ok {
		return Ref{}, false
	}

	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Ref{}, false
	}
	return Ref{StepID: m[1], Output: m[2]}, true
}

// IsRef проверяет, является ли значение ссылочным выражением.
func IsRef(value any) bool {
	_, ok := ParseRef(value)
	return ok
}

// ResolveInputs подставляет ссылки во входах шага значениями из контекста
// исполнения (эффективный id → записанные outputs шага).
//
// Это повторная проверка во время исполнения против фактически
// произведённых выходов, а не объявленных: отсутствие шага в контексте
// и отсутствие выхода у шага — обе ошибки UNRESOLVED_REF. Любое значение,
// не совпадающее с грамматикой, проходит без изменений как литерал.
func ResolveInputs(inputs map[string]any, context map[string]map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(inputs))

	for _, key := range sortedKeys(inputs) {
		value := inputs[key]

		ref, ok := ParseRef(value)
		if !ok {
			resolved[key] = value
			continue
		}

		stepOutputs, ok := context[ref.StepID]
		if !ok {
			return nil, NewError(domain.CodeUnresolvedRef,
				fmt.Sprintf("Reference %q: step %q has no outputs in context", value, ref.StepID))
		}

		out, ok := stepOutputs[ref.Output]
		if !ok {
			return nil, NewError(domain.CodeUnresolvedRef,
				fmt.Sprintf("Reference %q: step %q has no output %q", value, ref.StepID, ref.Output))
		}

		resolved[key] = out
	}

	return resolved, nil
}

// sortedKeys возвращает ключи map в отсортированном порядке.
// Детерминированный обход делает результаты валидации и исполнения
// воспроизводимыми независимо от порядка итерации map.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
