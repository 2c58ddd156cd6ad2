// Package engine содержит ядро flowmind: валидатор плана и исполнитель.
//
// Включает:
//   - validator.go — схемная и семантическая валидация PlanDocument
//   - graph.go     — граф зависимостей и топологическая сортировка (Кан)
//   - refs.go      — грамматика ссылок ${step.outputs.field} и их разрешение
//   - executor.go  — последовательное fail-fast исполнение плана
//
// Валидация выполняется один раз и гарантирует исполнимый порядок шагов;
// исполнитель обходит этот порядок строго последовательно.
package engine
