package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowmind/flowmind/internal/domain"
)

// AtomRepo читает определения атомов из таблицы atoms.
//
// Схема:
//
//	CREATE TABLE atoms (
//	    id         TEXT PRIMARY KEY,
//	    definition JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// definition содержит AtomDef в формате файлов atoms/*.json.
type AtomRepo struct {
	pool *pgxpool.Pool
}

// NewAtomRepo создаёт репозиторий определений атомов.
func NewAtomRepo(pool *pgxpool.Pool) *AtomRepo {
	return &AtomRepo{pool: pool}
}

// ListDefinitions возвращает все определения атомов, отсортированные по id.
// Определения с пустым id внутри definition пропускаются при регистрации,
// как и файловые.
func (r *AtomRepo) ListDefinitions(ctx context.Context) ([]domain.AtomDef, error) {
	rows, err := r.pool.Query(ctx, `SELECT definition FROM atoms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query atoms: %w", err)
	}
	defer rows.Close()

	var defs []domain.AtomDef
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan atom definition: %w", err)
		}

		var def domain.AtomDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("parse atom definition: %w", err)
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate atoms: %w", err)
	}
	return defs, nil
}
