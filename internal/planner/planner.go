// Package planner строит структурированный документ плана из намерения
// пользователя. Документ возвращается сырым (map), потому что планировщик —
// недоверенный источник: его выход проходит полную валидацию движком
// до типизации.
package planner

import (
	"context"
	"strings"
)

// Planner строит документ плана из намерения пользователя.
type Planner interface {
	// Plan возвращает сырой документ плана: target, plan.steps,
	// опционально plan.outputs.
	Plan(ctx context.Context, intent string) (map[string]any, error)
}

// Mock — фиксированный планировщик для прогона полного конвейера
// без LLM. Использует реальные id атомов из atoms/globalx.json,
// чтобы план проходил валидацию.
type Mock struct{}

// NewMock создаёт фиксированный планировщик.
func NewMock() *Mock {
	return &Mock{}
}

// Plan возвращает фиксированный план: проверка права на передачу,
// затем передача файла.
func (m *Mock) Plan(_ context.Context, intent string) (map[string]any, error) {
	target := strings.TrimSpace(intent)
	if target == "" {
		target = "Query user permission and transfer file"
	}

	return map[string]any{
		"target": target,
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "query_perm",
					"id":      "globalx.permission.query_permissions",
					"target":  "Check if user has transfer permission",
					"inputs":  map[string]any{"user_id": "user_001"},
				},
				map[string]any{
					"step_id": "transfer_file",
					"id":      "globalx.transfer.file_transfer",
					"target":  "Transfer file from sender to receiver",
					"inputs": map[string]any{
						"file_path":   "/path/to/file",
						"sender_id":   "user_001",
						"receiver_id": "user_002",
					},
					"depends_on": []any{"query_perm"},
				},
			},
			"outputs": map[string]any{"result": "Transfer completed"},
		},
	}, nil
}
