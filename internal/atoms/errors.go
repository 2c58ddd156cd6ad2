package atoms

import "errors"

// Ошибки реестра и таблицы диспетчеризации.
var (
	// ErrEmptyAtomID — определение атома без id.
	ErrEmptyAtomID = errors.New("atom definition has empty id")

	// ErrInvalidAtomID — id не следует конвенции "package.domain.action".
	ErrInvalidAtomID = errors.New("atom id does not follow package.domain.action convention")

	// ErrNilFunc — попытка зарегистрировать nil-функцию.
	ErrNilFunc = errors.New("atom function is nil")

	// ErrNotRegistered — для атома нет зарегистрированной функции.
	ErrNotRegistered = errors.New("no function registered for atom")
)
