// Package pgstore keeps the state document as a single jsonb row, for
// installations that already run Postgres. Load/save stays all-or-nothing,
// same as the file store.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ndenisov/groupgate/internal/domain"
)

const stateID = 1

type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db Database
}

func New(db Database) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context) (*domain.Document, error) {
	query := `
        SELECT doc
        FROM state
        WHERE id = $1
    `
	var raw []byte
	err := s.db.QueryRow(ctx, query, stateID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state row: %w", err)
	}

	doc := &domain.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode state row: %w", err)
	}
	doc.Normalize()

	return doc, nil
}

func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := `
        INSERT INTO state (id, doc, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
    `
	if _, err := s.db.Exec(ctx, query, stateID, raw); err != nil {
		return fmt.Errorf("save state row: %w", err)
	}
	return nil
}
