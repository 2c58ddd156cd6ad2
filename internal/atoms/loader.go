package atoms

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flowmind/flowmind/internal/domain"
)

// atomsFile — формат файла с определениями атомов.
//
//	{ "atoms": [ { "id": ..., "inputs": [...], "outputs": [...] }, ... ] }
type atomsFile struct {
	Atoms []domain.AtomDef `json:"atoms" yaml:"atoms"`
}

// LoadDir загружает определения атомов из файлов *.json, *.yaml и *.yml
// каталога dir и регистрирует их в реестре.
//
// Файлы обрабатываются в лексикографическом порядке; при совпадении id
// выигрывает более поздний файл. Нечитаемые и некорректные файлы
// пропускаются с предупреждением в лог. Отсутствующий каталог не ошибка:
// реестр просто остаётся пустым.
func LoadDir(dir string, reg *Registry, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("atoms directory not found", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read atoms dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		defs, err := loadFile(path)
		if err != nil {
			logger.Warn("skipping atoms file", "path", path, "error", err)
			continue
		}
		if defs == nil {
			// Не json/yaml — игнорируем молча.
			continue
		}

		skipped := 0
		for _, def := range defs {
			if def.ID == "" {
				skipped++
				continue
			}
			_ = reg.Register(def)
		}

		logger.Debug("loaded atoms file",
			"path", path,
			"atoms", len(defs)-skipped,
			"skipped", skipped,
		)
	}

	logger.Info("atoms registry loaded", "dir", dir, "atoms", reg.Count())
	return nil
}

// loadFile читает один файл с определениями.
// Возвращает nil без ошибки для файлов с посторонним расширением.
func loadFile(path string) ([]domain.AtomDef, error) {
	var unmarshal func([]byte, any) error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var file atomsFile
	if err := unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	return file.Atoms, nil
}
