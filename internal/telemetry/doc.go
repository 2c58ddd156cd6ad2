// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//
// Уровень и формат логирования управляются переменными окружения
// LOG_LEVEL и LOG_FORMAT; Prometheus метрики экспортируются
// сервисом API на /metrics endpoint.
package telemetry
