package atoms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowmind/flowmind/internal/domain"
)

// Registry — реестр определений атомов (id → AtomDef).
//
// Реестр строится один раз при старте процесса и далее используется
// только для чтения валидатором и исполнителем. Потокобезопасен.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]domain.AtomDef
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]domain.AtomDef),
	}
}

// Register добавляет определение атома в реестр.
// Определение с уже существующим id перезаписывается.
func (r *Registry) Register(def domain.AtomDef) error {
	if def.ID == "" {
		return ErrEmptyAtomID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def
	return nil
}

// RegisterAll добавляет несколько определений.
// Определения с пустым id пропускаются без ошибки.
func (r *Registry) RegisterAll(defs []domain.AtomDef) {
	for _, def := range defs {
		if def.ID == "" {
			continue
		}
		_ = r.Register(def)
	}
}

// Get возвращает определение атома по id.
func (r *Registry) Get(id string) (domain.AtomDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	return def, ok
}

// Has проверяет, зарегистрирован ли атом.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// IDs возвращает отсортированный список идентификаторов атомов.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Defs возвращает все определения, отсортированные по id.
func (r *Registry) Defs() []domain.AtomDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.AtomDef, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Count возвращает количество зарегистрированных атомов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// String возвращает краткое описание реестра для логирования.
func (r *Registry) String() string {
	return fmt.Sprintf("Registry(%d atoms)", r.Count())
}
