package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/flowmind/flowmind/internal/atoms"
)

// ErrNoAPIKey — не задан OPENAI_API_KEY.
var ErrNoAPIKey = errors.New("planner: OPENAI_API_KEY is not set")

// ErrNoPlanInResponse — в ответе модели не нашлось JSON-объекта.
var ErrNoPlanInResponse = errors.New("planner: model response contains no JSON object")

const defaultModel = "gpt-4o-mini"

const systemPrompt = `You are a workflow planner. Given a user intent and a catalog
of available atoms, produce a plan document as a single JSON object with keys:
  "target"      — the user intent, verbatim
  "plan"        — object with:
    "steps"     — array of steps, each with:
      "step_id"    — short unique identifier
      "id"         — atom id from the catalog (exact match)
      "target"     — what this step achieves
      "inputs"     — object of input values; reference a previous step's
                     output as "${step_id.outputs.output_name}"
      "depends_on" — optional array of step_ids this step depends on
    "outputs"   — optional object mapping plan-level output names to values

Use only atoms from the catalog. Respond with the JSON object and nothing else.`

// LLM — планировщик на основе языковой модели через langchaingo.
//
// Конфигурируется переменными окружения: OPENAI_API_KEY (обязательна),
// OPENAI_MODEL и OPENAI_BASE_URL (опциональны; BASE_URL позволяет
// использовать любой OpenAI-совместимый endpoint).
type LLM struct {
	model    llms.Model
	registry *atoms.Registry
	logger   *slog.Logger
}

// NewLLM создаёт LLM-планировщик поверх реестра атомов.
func NewLLM(registry *atoms.Registry, logger *slog.Logger) (*LLM, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}
	opts = append(opts, openai.WithModel(model))

	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("planner: create openai client: %w", err)
	}

	return &LLM{
		model:    client,
		registry: registry,
		logger:   logger,
	}, nil
}

// Plan запрашивает у модели документ плана для намерения пользователя.
// Ответ модели не валидируется здесь: как и любой план, он проходит
// через движок валидации.
func (p *LLM) Plan(ctx context.Context, intent string) (map[string]any, error) {
	catalog, err := json.MarshalIndent(p.registry.Defs(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("planner: marshal atom catalog: %w", err)
	}

	prompt := fmt.Sprintf("%s\n\nAtom catalog:\n%s\n\nUser intent: %s",
		systemPrompt, catalog, intent)

	p.logger.Debug("запрос плана у модели",
		slog.String("intent", intent),
		slog.Int("atoms", p.registry.Count()))

	completion, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("planner: generate plan: %w", err)
	}

	doc, err := extractJSON(completion)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("план получен", slog.Int("bytes", len(completion)))
	return doc, nil
}

// extractJSON выделяет первый JSON-объект из ответа модели.
// Модели оборачивают JSON в markdown-ограждения или пояснительный текст;
// берётся срез от первой '{' до последней '}'.
func extractJSON(response string) (map[string]any, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return nil, ErrNoPlanInResponse
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(response[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("planner: parse model response: %w", err)
	}
	return doc, nil
}
