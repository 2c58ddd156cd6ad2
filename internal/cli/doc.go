// Package cli реализует команды flowmind CLI.
//
// Структура:
//   - client.go  — HTTP-клиент для flowmind API
//   - output.go  — форматирование вывода (таблицы, JSON)
//   - plan.go    — команда plan: намерение → план → исполнение
//   - execute.go — команда execute: план из файла + пользовательские входы
//   - health.go  — команда health
//
// CLI не импортирует internal/api: формы ответов продублированы
// свободными типами, чтобы клиент переживал эволюцию сервера.
package cli
