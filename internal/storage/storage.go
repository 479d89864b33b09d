// Package storage defines the durable document store the whole state lives
// in. Both backends are all-or-nothing per call: Load returns the full
// document, Save replaces it.
package storage

import (
	"context"

	"github.com/ndenisov/groupgate/internal/domain"
)

//go:generate mockgen -source=storage.go -destination=storage_mock.go -package=storage
type Store interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}
