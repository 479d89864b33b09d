// Package state owns the in-memory state document and serializes every
// mutation. There is exactly one writer path: Update runs the mutation under
// the lock and writes the document through to the store before returning, so
// a crash loses at most the in-flight operation.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/storage"
)

type Manager struct {
	mu    sync.Mutex
	doc   *domain.Document
	store storage.Store
}

// Load reads the persisted document and wraps it in a manager. Components
// receive the manager in their constructors; nothing else touches the store.
func Load(ctx context.Context, store storage.Store) (*Manager, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	doc.Normalize()

	return &Manager{doc: doc, store: store}, nil
}

// Update applies fn to the document under the lock and persists on success.
// fn must not block on I/O: transport and feed calls happen outside, and the
// caller re-validates state in a fresh Update afterwards.
func (m *Manager) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fn(m.doc); err != nil {
		return err
	}
	if err := m.store.Save(ctx, m.doc); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// View runs fn read-only under the lock. fn must not retain references to
// the document past its return.
func (m *Manager) View(fn func(doc *domain.Document)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.doc)
}
