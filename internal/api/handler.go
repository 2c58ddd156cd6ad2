package api

import (
	"log/slog"

	"github.com/flowmind/flowmind/internal/atoms"
	"github.com/flowmind/flowmind/internal/engine"
	"github.com/flowmind/flowmind/internal/events"
	"github.com/flowmind/flowmind/internal/planner"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	registry  *atoms.Registry
	planner   planner.Planner
	executor  *engine.Executor
	publisher *events.Publisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
// Publisher опционален: nil отключает публикацию событий.
type Config struct {
	Registry  *atoms.Registry
	Planner   planner.Planner
	Executor  *engine.Executor
	Publisher *events.Publisher
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		registry:  cfg.Registry,
		planner:   cfg.Planner,
		executor:  cfg.Executor,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}
