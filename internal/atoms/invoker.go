package atoms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Func — вызываемая реализация атома.
//
// inputs содержит уже разрешённые входы (ссылки подставлены).
// Возвращаемое значение маппится на объявленные выходы атома исполнителем.
type Func func(ctx context.Context, inputs map[string]any) (any, error)

// Invoker — явная таблица диспетчеризации: id атома → функция.
//
// Таблица строится при старте процесса регистрацией конкретных функций;
// никакого рефлексивного поиска по имени. Потокобезопасен.
type Invoker struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewInvoker создаёт пустую таблицу диспетчеризации.
func NewInvoker() *Invoker {
	return &Invoker{
		fns: make(map[string]Func),
	}
}

// Register регистрирует функцию для атома.
// id должен следовать конвенции "package.domain.action".
func (iv *Invoker) Register(id string, fn Func) error {
	if !validAtomID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAtomID, id)
	}
	if fn == nil {
		return fmt.Errorf("%w: %q", ErrNilFunc, id)
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.fns[id] = fn
	return nil
}

// MustRegister регистрирует функцию и паникует при ошибке.
// Используется для встроенных атомов при старте.
func (iv *Invoker) MustRegister(id string, fn Func) {
	if err := iv.Register(id, fn); err != nil {
		panic(err)
	}
}

// Resolve возвращает функцию для атома.
func (iv *Invoker) Resolve(id string) (Func, error) {
	if !validAtomID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAtomID, id)
	}

	iv.mu.RLock()
	defer iv.mu.RUnlock()

	fn, ok := iv.fns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	return fn, nil
}

// Has проверяет, зарегистрирована ли функция для атома.
func (iv *Invoker) Has(id string) bool {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	_, ok := iv.fns[id]
	return ok
}

// IDs возвращает отсортированный список зарегистрированных атомов.
func (iv *Invoker) IDs() []string {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	ids := make([]string, 0, len(iv.fns))
	for id := range iv.fns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// validAtomID проверяет конвенцию "package.domain.action".
// Часть action может содержать точки, как и в исходной конвенции.
func validAtomID(id string) bool {
	parts := strings.SplitN(id, ".", 3)
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
