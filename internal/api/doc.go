// Package api реализует HTTP интерфейс flowmind.
//
// Endpoints:
//   - POST /plan    — намерение → план → валидация → исполнение
//   - POST /execute — готовый план + пользовательские входы → исполнение
//   - GET  /health  — проверка живости
//
// Тела ответов /plan и /execute имеют фиксированную форму
// {plan, validation, execution} без дополнительных обёрток.
package api
