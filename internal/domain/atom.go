package domain

// AtomDef — определение атома в реестре возможностей.
//
// Атом — внешняя единица работы с фиксированным контрактом входов/выходов.
// Определения загружаются из файлов atoms/*.json|yaml (или из БД) один раз
// при старте процесса и далее используются только для чтения.
type AtomDef struct {
	// ID — идентификатор атома в формате "package.domain.action".
	ID string `json:"id" yaml:"id"`

	// Description — описание назначения атома.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Inputs — объявленные входы атома.
	Inputs []AtomInput `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// Outputs — объявленные выходы атома.
	Outputs []AtomOutput `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	// Constraints — ограничения на применение атома.
	Constraints *AtomConstraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// AtomInput — объявление входа атома.
type AtomInput struct {
	// Name — имя входного поля.
	Name string `json:"name" yaml:"name"`

	// Required — обязателен ли вход.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Type — тип значения: "string", "number", "boolean", "object".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Description — описание входа.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AtomOutput — объявление выхода атома.
type AtomOutput struct {
	// Name — имя выходного поля.
	Name string `json:"name" yaml:"name"`

	// Type — тип значения.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Description — описание выхода.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AtomConstraints — ограничения атома.
type AtomConstraints struct {
	// Preconditions — текстовые предусловия применения атома.
	Preconditions []string `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
}

// InputByName возвращает объявление входа по имени.
func (a *AtomDef) InputByName(name string) (AtomInput, bool) {
	for _, in := range a.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return AtomInput{}, false
}

// HasOutput проверяет, объявлен ли у атома выход с таким именем.
func (a *AtomDef) HasOutput(name string) bool {
	for _, out := range a.Outputs {
		if out.Name != "" && out.Name == name {
			return true
		}
	}
	return false
}

// DeclaredOutputs возвращает выходы с непустыми именами в порядке объявления.
func (a *AtomDef) DeclaredOutputs() []AtomOutput {
	outs := make([]AtomOutput, 0, len(a.Outputs))
	for _, out := range a.Outputs {
		if out.Name != "" {
			outs = append(outs, out)
		}
	}
	return outs
}
